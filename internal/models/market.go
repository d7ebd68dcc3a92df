package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Market is a persisted market (establishment) profile
type Market struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	CNPJ            string             `bson:"cnpj" json:"cnpj"`
	TradeName       string             `bson:"trade_name" json:"tradeName"`
	LegalName       string             `bson:"legal_name" json:"legalName"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Location        `bson:",inline"`
	Phone           string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Email           string    `bson:"email,omitempty" json:"email,omitempty"`
	ResponsibleName string    `bson:"responsible_name,omitempty" json:"responsibleName,omitempty"`
	PhotoURL        string    `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	BannerURL       string    `bson:"banner_url,omitempty" json:"bannerUrl,omitempty"`
	Rating          float64   `bson:"rating" json:"rating"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}

// CreateMarketRequest is the payload of POST /v1/markets
type CreateMarketRequest struct {
	CNPJ            string   `json:"cnpj" validate:"required,len=14,numeric,cnpj"`
	TradeName       string   `json:"tradeName" validate:"required,name"`
	LegalName       string   `json:"legalName" validate:"required,name"`
	Description     string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address         string   `json:"address" validate:"required,min=5"`
	City            string   `json:"city" validate:"required,min=2"`
	State           string   `json:"state" validate:"required,len=2,uf"`
	ZipCode         string   `json:"zipCode" validate:"required,len=8,numeric"`
	Lat             *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng             *float64 `json:"lng" validate:"required,min=-180,max=180"`
	Phone           string   `json:"phone,omitempty" validate:"omitempty,min=10,brphone"`
	Email           string   `json:"email,omitempty" validate:"omitempty,email"`
	ResponsibleName string   `json:"responsibleName,omitempty" validate:"omitempty,name"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	BannerURL       string   `json:"bannerUrl,omitempty"`
}

// UpdateMarketRequest is the payload of PATCH /v1/markets/me.
// The CNPJ cannot be changed; nil fields are left untouched.
type UpdateMarketRequest struct {
	TradeName       *string  `json:"tradeName,omitempty" validate:"omitempty,name"`
	LegalName       *string  `json:"legalName,omitempty" validate:"omitempty,name"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address         *string  `json:"address,omitempty" validate:"omitempty,min=5"`
	City            *string  `json:"city,omitempty" validate:"omitempty,min=2"`
	State           *string  `json:"state,omitempty" validate:"omitempty,len=2,uf"`
	ZipCode         *string  `json:"zipCode,omitempty" validate:"omitempty,len=8,numeric"`
	Lat             *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng             *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,min=10,brphone"`
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	ResponsibleName *string  `json:"responsibleName,omitempty" validate:"omitempty,name"`
}

// MarketPhotoField names the market image slots
type MarketPhotoField string

const (
	MarketPhotoFieldPhoto  MarketPhotoField = "photoUrl"
	MarketPhotoFieldBanner MarketPhotoField = "bannerUrl"
)

// IsValid reports whether the field is one of the market image slots
func (f MarketPhotoField) IsValid() bool {
	return f == MarketPhotoFieldPhoto || f == MarketPhotoFieldBanner
}

// MarketPhotoRemoveRequest is the body of DELETE /v1/markets/me/photos
type MarketPhotoRemoveRequest struct {
	Field MarketPhotoField `json:"field"`
}

// MarketPhotoResponse is returned by the market photo upload
type MarketPhotoResponse struct {
	URL    string           `json:"url"`
	Field  MarketPhotoField `json:"field"`
	Market *Market          `json:"market"`
}
