package models

// Source is a web source found during the research step.
type Source struct {
	Title string `json:"title" bson:"title"`
	Body  string `json:"body"  bson:"body"`
	Href  string `json:"href"  bson:"href"`
}
