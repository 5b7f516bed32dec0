package session

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// UserPicture is one rendition of a profile picture.
type UserPicture struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	ExpiresAt time.Time `json:"expires_at"`
	URL       string    `json:"url"`
}

// UserDetails identifies the account a Session is logged in as.
type UserDetails struct {
	MemberURN        string        `json:"member_urn"`
	ProfileURN       string        `json:"profile_urn"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	PublicIdentifier string        `json:"public_identifier"`
	Pictures         []UserPicture `json:"pictures"`
}

// Equal compares identity and name, ignoring pictures.
func (u UserDetails) Equal(other UserDetails) bool {
	return u.MemberURN == other.MemberURN &&
		u.ProfileURN == other.ProfileURN &&
		u.FirstName == other.FirstName &&
		u.LastName == other.LastName
}

// FullName joins first and last name.
func (u UserDetails) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

const vectorImage = `com\.linkedin\.common\.VectorImage`

// ParseProfile extracts UserDetails from a profile response body.
func ParseProfile(data []byte) (UserDetails, error) {
	if !gjson.ValidBytes(data) {
		return UserDetails{}, &ErrInvalidPayload{Payload: data}
	}

	mini := gjson.GetBytes(data, "miniProfile")
	u := UserDetails{
		MemberURN:        mini.Get("objectUrn").String(),
		ProfileURN:       mini.Get("entityUrn").String(),
		FirstName:        mini.Get("firstName").String(),
		LastName:         mini.Get("lastName").String(),
		PublicIdentifier: mini.Get("publicIdentifier").String(),
		Pictures:         parsePictures(mini.Get("picture." + vectorImage)),
	}

	if u.MemberURN == "" || u.ProfileURN == "" || u.FirstName == "" ||
		u.LastName == "" || u.PublicIdentifier == "" {
		return UserDetails{}, &ErrInvalidPayload{Payload: data}
	}
	return u, nil
}

// parsePictures keeps artifacts with a size, an expiry and a URL.
func parsePictures(image gjson.Result) []UserPicture {
	root := image.Get("rootUrl").String()
	if root == "" {
		return []UserPicture{}
	}

	pictures := []UserPicture{}
	image.Get("artifacts").ForEach(func(_, a gjson.Result) bool {
		p := UserPicture{
			Width:  int(a.Get("width").Int()),
			Height: int(a.Get("height").Int()),
			URL:    root + a.Get("fileIdentifyingUrlPathSegment").String(),
		}
		if ms := a.Get("expiresAt").Int(); ms > 0 {
			p.ExpiresAt = time.UnixMilli(ms).UTC()
		}
		if p.Width > 0 && p.Height > 0 && !p.ExpiresAt.IsZero() {
			pictures = append(pictures, p)
		}
		return true
	})
	return pictures
}
