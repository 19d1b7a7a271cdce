package model

import "time"

// Category is the detailed cuisine category of a restaurant.
type Category string

const (
	CategoryWashoku  Category = "washoku"
	CategorySushi    Category = "sushi"
	CategoryRamen    Category = "ramen"
	CategoryYakiniku Category = "yakiniku"
	CategoryYoshoku  Category = "yoshoku"
	CategoryItalian  Category = "italian"
	CategoryFrench   Category = "french"
	CategoryCafe     Category = "cafe"
	CategoryChinese  Category = "chinese"
	CategoryOther    Category = "other"
)

// MainCategory groups detailed categories for list filtering.
type MainCategory string

const (
	MainJapanese MainCategory = "japanese"
	MainWestern  MainCategory = "western"
	MainChinese  MainCategory = "chinese"
	MainOther    MainCategory = "other"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryWashoku, CategorySushi, CategoryRamen, CategoryYakiniku,
	CategoryYoshoku, CategoryItalian, CategoryFrench, CategoryCafe,
	CategoryChinese, CategoryOther,
}

// Main returns the main category c belongs to.
func (c Category) Main() MainCategory {
	switch c {
	case CategoryWashoku, CategorySushi, CategoryRamen, CategoryYakiniku:
		return MainJapanese
	case CategoryYoshoku, CategoryItalian, CategoryFrench, CategoryCafe:
		return MainWestern
	case CategoryChinese:
		return MainChinese
	default:
		return MainOther
	}
}

// Location is a geographic point.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Restaurant is a reviewable venue.
type Restaurant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      Category  `json:"category"`
	Address       string    `json:"address"`
	Location      *Location `json:"location,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	BusinessHours string    `json:"businessHours"`
	Description   string    `json:"description,omitempty"`
	ImageURLs     []string  `json:"imageUrls,omitempty"`
	Website       string    `json:"website,omitempty"`
	Owner         string    `json:"owner,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserProfile holds the public display name of a principal.
type UserProfile struct {
	PrincipalID string    `json:"principalId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StoredImage is an image persisted in the document store when object
// storage is unavailable.
type StoredImage struct {
	ContentType string    `json:"contentType"`
	Data        string    `json:"data"` // base64
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
