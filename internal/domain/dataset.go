package domain

// Wire models for the dataset endpoint. Field names are part of the public API.

type PubView struct {
	ID             int64    `json:"id"`
	CustomPubID    string   `json:"custom_pub_id"`
	CamraID        *string  `json:"camra_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	InventoryStars int      `json:"inventory_stars"`
	URL            string   `json:"url"`
	Description    string   `json:"description"`
	Open           bool     `json:"open"`
	Listed         string   `json:"listed"`
	UsersVisited   []int64  `json:"users_visited"`
}

type PostView struct {
	ID          int64   `json:"id"`
	Content     string  `json:"content"`
	DateVisited *string `json:"date_visited"` // DD-MM-YYYY
}

type PubEntry struct {
	Pub   PubView    `json:"pub"`
	Posts []PostView `json:"posts"`
}

type Dataset struct {
	Pubs   []PubEntry `json:"pubs"`
	UserID int64      `json:"user_id"`
}

// DisplayDateLayout is the day-first layout used when posts are served.
const DisplayDateLayout = "02-01-2006"

// InputDateLayout is the layout accepted when a visit is saved.
const InputDateLayout = "2006-01-02"

type VisitInput struct {
	PubID       int64  `json:"pub_id"`
	DateVisited string `json:"date_visited"`
	Content     string `json:"content"`
}

func NewPubView(p Pub) PubView {
	visited := p.UsersVisited
	if visited == nil {
		visited = []int64{}
	}
	return PubView{
		ID:             p.ID,
		CustomPubID:    p.CustomPubID,
		CamraID:        p.CamraID,
		Name:           p.Name,
		Address:        p.Address,
		Latitude:       p.Lat,
		Longitude:      p.Lon,
		InventoryStars: p.InventoryStars,
		URL:            p.URL,
		Description:    p.Description,
		Open:           p.Open,
		Listed:         p.Listed,
		UsersVisited:   visited,
	}
}

func NewPostView(p Post) PostView {
	pv := PostView{ID: p.ID, Content: p.Content}
	if p.DateVisited != nil {
		s := p.DateVisited.Format(DisplayDateLayout)
		pv.DateVisited = &s
	}
	return pv
}
