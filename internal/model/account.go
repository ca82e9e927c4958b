package model

// CustomEvent is a user-defined dated event attached to an account,
// a banner or a contact (anniversaries, store resets, trade shows).
type CustomEvent struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Description  string `json:"description,omitempty"`
	AlertEnabled bool   `json:"alertEnabled"`
}

// BannerBuyingOffice is a banner or buying office that belongs to an
// account and may run its own Joint Business Plan cycle.
type BannerBuyingOffice struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	AccountOwner  string        `json:"accountOwner,omitempty"`
	VP            string        `json:"vp,omitempty"`
	IsJBP         bool          `json:"isJBP"`
	NextJBPDate   string        `json:"nextJBPDate,omitempty"`
	NextJBPAlert  bool          `json:"nextJBPAlert"`
	LastJBPDate   string        `json:"lastJBPDate,omitempty"`
	Events        []CustomEvent `json:"events,omitempty"`
}

// Account is a strategic business account.
type Account struct {
	ID           string `json:"id"`
	AccountName  string `json:"accountName"`
	AccountOwner string `json:"accountOwner,omitempty"`
	VP           string `json:"vp,omitempty"`
	Email        string `json:"email,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Address      string `json:"address,omitempty"`
	Website      string `json:"website,omitempty"`

	// IsJBP marks accounts that run a Joint Business Plan cycle.
	IsJBP        bool   `json:"isJBP"`
	NextJBPDate  string `json:"nextJBPDate,omitempty"`
	NextJBPAlert bool   `json:"nextJBPAlert"`
	LastJBPDate  string `json:"lastJBPDate,omitempty"`

	Events  []CustomEvent        `json:"events,omitempty"`
	Banners []BannerBuyingOffice `json:"banners,omitempty"`
}
