// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// Cloud-drive share-link shapes. Each captures the file ID.
var (
	driveFileRe = regexp.MustCompile(`drive\.google\.com/file/d/([A-Za-z0-9_-]+)`)
	driveOpenRe = regexp.MustCompile(`drive\.google\.com/open\?id=([A-Za-z0-9_-]+)`)
	docsFileRe  = regexp.MustCompile(`docs\.google\.com/(?:document|presentation|spreadsheets)/d/([A-Za-z0-9_-]+)`)
)

// maxDriveRewrites bounds how many alternate shapes the PDF track retries.
const maxDriveRewrites = 3

// DriveRewrites returns up to three alternate URL shapes for a cloud-drive
// share link, in retry order: preview/viewer, export-download, export-view.
// A URL that is not a recognized share link yields nil.
func DriveRewrites(rawURL string) []string {
	if id := driveFileID(rawURL); id != "" {
		return []string{
			"https://drive.google.com/file/d/" + id + "/preview",
			"https://drive.google.com/uc?export=download&id=" + id,
			"https://drive.google.com/uc?export=view&id=" + id,
		}
	}

	if strings.Contains(rawURL, "dropbox.com/s/") {
		if u, err := url.Parse(rawURL); err == nil {
			q := u.Query()
			q.Set("dl", "1")
			u.RawQuery = q.Encode()
			return []string{u.String()}
		}
	}

	return nil
}

func driveFileID(rawURL string) string {
	for _, re := range []*regexp.Regexp{driveFileRe, driveOpenRe, docsFileRe} {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
