package tmdb

// ImageBaseURL serves every image size.
const ImageBaseURL = "https://image.tmdb.org/t/p"

// PlaceholderImage is used for titles without artwork.
const PlaceholderImage = "/placeholder-movie.jpg"

type ImageType string

const (
	Poster   ImageType = "poster"
	Backdrop ImageType = "backdrop"
	Profile  ImageType = "profile"
)

type ImageSize string

const (
	Small    ImageSize = "small"
	Medium   ImageSize = "medium"
	Large    ImageSize = "large"
	Original ImageSize = "original"
)

var imageSizes = map[ImageType]map[ImageSize]string{
	Poster: {
		Small:    "w185",
		Medium:   "w342",
		Large:    "w500",
		Original: "original",
	},
	Backdrop: {
		Small:    "w300",
		Medium:   "w780",
		Large:    "w1280",
		Original: "original",
	},
	Profile: {
		Small:    "w45",
		Medium:   "w185",
		Large:    "h632",
		Original: "original",
	},
}

// ImageURL builds the CDN URL for an image path. Unknown types or sizes
// fall back to a medium poster.
func ImageURL(path string, size ImageSize, typ ImageType) string {
	if path == "" {
		return PlaceholderImage
	}
	sizes, ok := imageSizes[typ]
	if !ok {
		sizes = imageSizes[Poster]
	}
	s, ok := sizes[size]
	if !ok {
		s = sizes[Medium]
	}
	return ImageBaseURL + "/" + s + path
}
