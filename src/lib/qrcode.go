package lib

import (
	"fmt"
	"log"
	"os"
	"path"

	"github.com/yeqown/go-qrcode"
)

// RenderReceiptQR encodes the receipt payload into a QR image on disk and
// returns the file path. Files land in the OS temp dir keyed by name, so
// repeated renders of the same receipt overwrite in place.
func RenderReceiptQR(name string, payload string) (string, error) {
	qrc, err := qrcode.New(payload)
	if err != nil {
		return "", err
	}
	filepath := path.Join(os.TempDir(), fmt.Sprintf("%s.jpeg", name))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	return filepath, nil
}
