package companies

type RegisterCompanyRequest struct {
	BusinessID    string `json:"business_id" binding:"required,max=100"`
	PhoneNumber   string `json:"phone_number" binding:"required,max=20"`
	GSTNumber     string `json:"gst_number" binding:"required,len=15,alphanum"`
	AadharNumber  string `json:"aadhar_number" binding:"required,len=12,numeric"`
	AccountNumber string `json:"account_number" binding:"required,min=6,max=34,alphanum"`
	IFSCCode      string `json:"ifsc_code" binding:"required,len=11,alphanum"`
}

type VerifyCompanyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}
