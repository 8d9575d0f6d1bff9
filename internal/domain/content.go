package domain

// Post is a blog or news entry managed through the admin panel.
type Post struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt,omitempty"`
	CategoryID int64    `json:"categoryId,omitempty"`
	Status     string   `json:"status"` // "draft" or "published"
	CoverURL   string   `json:"coverUrl,omitempty"`
	MediaURLs  []string `json:"mediaUrls,omitempty"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
}

// Category groups posts for navigation and filtering.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Award is a recognition entry shown on the public site.
type Award struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Publication is a downloadable report or paper.
type Publication struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Year    int    `json:"year"`
	FileURL string `json:"fileUrl,omitempty"`
}

// SocialLink points to one of the organization's social media presences.
type SocialLink struct {
	ID       int64  `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Profile holds the organization's public-facing details.
type Profile struct {
	Name    string `json:"name"`
	Mission string `json:"mission,omitempty"`
	About   string `json:"about,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// DonateInfo holds the donation instructions shown on the donate page.
type DonateInfo struct {
	BankName      string `json:"bankName,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}
