package models

// Image is a rendered screenshot together with where it was stored.
type Image struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
