package entity

// Branding is the organisation metadata used to decorate documents.
type Branding struct {
	CompanyName string `json:"companyName"`
	LogoURL     string `json:"logoUrl,omitempty"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}
