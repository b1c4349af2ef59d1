package models

// Image is the metadata kept for an uploaded image. The bytes live in
// storage under Path.
type Image struct {
	ID          string `json:"image_id" redis:"id"`
	Filename    string `json:"filename" redis:"filename"`
	ContentType string `json:"content_type" redis:"content_type"`
	UserID      string `json:"user_id,omitempty" redis:"user_id"`
	Length      int64  `json:"length" redis:"length"`
	Path        string `json:"-" redis:"path"`
}

// ProfilePicUpdate carries a base64 image, optionally as a data URL.
type ProfilePicUpdate struct {
	ProfilePic string `json:"profile_pic"`
}
