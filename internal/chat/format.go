package chat

import (
	"strings"
	"time"
)

const (
	// fullTimeLayout renders like "2020-01-01 10:30:15.123456", trailing
	// fractional zeros dropped.
	fullTimeLayout = "2006-01-02 15:04:05.999999"
	prettyTimeLen  = len("2020-01-01 00:00")

	profilePicturesDir = "img/profile_pictures"
)

// PrettyTime keeps the first 16 characters of the full timestamp, i.e.
// "YYYY-MM-DD HH:MM". Clients depend on this exact width.
func PrettyTime(t time.Time) string {
	full := t.Format(fullTimeLayout)
	if len(full) < prettyTimeLen {
		return full
	}
	return full[:prettyTimeLen]
}

// ProfilePicturePath resolves a picture file under the static root.
func ProfilePicturePath(staticRoot, filename string) string {
	return strings.TrimSuffix(staticRoot, "/") + "/" + profilePicturesDir + "/" + filename
}
