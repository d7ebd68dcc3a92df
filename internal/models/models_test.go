package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIsValidSkill(t *testing.T) {
	for _, s := range AllSkills {
		assert.True(t, IsValidSkill(string(s)), s)
	}
	assert.Len(t, AllSkills, 10)
	assert.False(t, IsValidSkill("repositor"))
	assert.False(t, IsValidSkill(""))
}

func TestIsValidPeriod(t *testing.T) {
	for _, p := range []string{"MANHA", "TARDE", "NOITE", "INTEGRAL"} {
		assert.True(t, IsValidPeriod(p), p)
	}
	assert.False(t, IsValidPeriod("MADRUGADA"))
}

func TestMarketPhotoField_IsValid(t *testing.T) {
	assert.True(t, MarketPhotoFieldPhoto.IsValid())
	assert.True(t, MarketPhotoFieldBanner.IsValid())
	assert.False(t, MarketPhotoField("logoUrl").IsValid())
}

func TestLocation_GeocodeQuery(t *testing.T) {
	loc := Location{Address: "Rua Domingos de Morais, 1200", City: "Sao Paulo", State: "SP", ZipCode: "04010200"}
	assert.Equal(t, "Rua Domingos de Morais, 1200, Sao Paulo, SP, 04010200, Brasil", loc.GeocodeQuery())
	assert.Equal(t, "", Location{}.GeocodeQuery())
	assert.Equal(t, "Campinas, Brasil", Location{City: "Campinas"}.GeocodeQuery())
}

func TestLocation_HasCoordinates(t *testing.T) {
	assert.False(t, Location{}.HasCoordinates())
	assert.True(t, Location{Lat: -23.5}.HasCoordinates())
}

func TestWorker_JSONFlattensLocation(t *testing.T) {
	w := Worker{CPF: "52998224725", Location: Location{City: "Sao Paulo", ZipCode: "04010200"}}

	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Sao Paulo", decoded["city"])
	assert.Equal(t, "04010200", decoded["zipCode"])
	assert.NotContains(t, decoded, "Location")
}

func TestWorker_BSONInlinesLocation(t *testing.T) {
	w := Worker{CPF: "52998224725", Location: Location{City: "Sao Paulo", State: "SP"}}

	raw, err := bson.Marshal(w)
	require.NoError(t, err)

	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "Sao Paulo", decoded["city"])
	assert.Equal(t, "SP", decoded["state"])
	assert.Equal(t, "52998224725", decoded["cpf"])
}

func TestEnvelopes(t *testing.T) {
	ok := NewSuccess(map[string]string{"id": "1"})
	assert.True(t, ok.Success)

	fail := NewError("CPF invalido", nil)
	raw, err := json.Marshal(fail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"CPF invalido","success":false}`, string(raw))
}
