package extract

import "strings"

// ResolveMIME maps the extension of key to the content type sent to the model.
// Everything that is not a pdf is submitted as image/<ext>; unrecognised
// extensions such as tiff or docx pass through unchanged.
func ResolveMIME(key string) string {
	ext := strings.ToLower(key[strings.LastIndex(key, ".")+1:])
	switch ext {
	case "pdf":
		return "application/pdf"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}
