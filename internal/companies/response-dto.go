package companies

import "time"

// CompanyResponse masks the identity and bank numbers
type CompanyResponse struct {
	ID            string     `json:"id"`
	OrganiserID   string     `json:"organiser_id"`
	BusinessID    string     `json:"business_id"`
	PhoneNumber   string     `json:"phone_number"`
	GSTNumber     string     `json:"gst_number"`
	AadharNumber  string     `json:"aadhar_number"`
	AccountNumber string     `json:"account_number"`
	IFSCCode      string     `json:"ifsc_code"`
	Verified      bool       `json:"verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c *Company) ToResponse() *CompanyResponse {
	return &CompanyResponse{
		ID:            c.ID.String(),
		OrganiserID:   c.OrganiserID.String(),
		BusinessID:    c.BusinessID,
		PhoneNumber:   c.PhoneNumber,
		GSTNumber:     c.GSTNumber,
		AadharNumber:  mask(c.AadharNumber),
		AccountNumber: mask(c.AccountNumber),
		IFSCCode:      c.IFSCCode,
		Verified:      c.Verified,
		VerifiedAt:    c.VerifiedAt,
		CreatedAt:     c.CreatedAt,
	}
}

// mask keeps the last four characters
func mask(value string) string {
	if len(value) <= 4 {
		return value
	}
	masked := make([]byte, len(value))
	for i := range masked {
		if i < len(value)-4 {
			masked[i] = '*'
		} else {
			masked[i] = value[i]
		}
	}
	return string(masked)
}
