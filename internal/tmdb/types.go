package tmdb

// Movie is a title as it appears in result pages.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// Year returns the release year, or "" when the date is unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Page is one page of a paginated movie listing.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

// Credits lists the cast and crew of a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the crew credited with the Director job.
func (c Credits) Directors() []string {
	var out []string
	for _, m := range c.Crew {
		if m.Job == "Director" {
			out = append(out, m.Name)
		}
	}
	return out
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Details is a movie with credits, videos, similar titles and
// recommendations appended.
type Details struct {
	Movie
	Tagline string  `json:"tagline"`
	Runtime int     `json:"runtime"`
	Status  string  `json:"status"`
	Genres  []Genre `json:"genres"`
	Credits Credits `json:"credits"`
	Videos  struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Similar         Page `json:"similar"`
	Recommendations Page `json:"recommendations"`
}

// Trailer returns the first YouTube trailer, if any.
func (d *Details) Trailer() (Video, bool) {
	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v, true
		}
	}
	return Video{}, false
}

// TimeWindow selects the trending period.
type TimeWindow string

const (
	Day  TimeWindow = "day"
	Week TimeWindow = "week"
)
