package tmdb

import "strings"

var mockMovies = []Movie{
	{
		ID:           1,
		Title:        "The Shawshank Redemption",
		PosterPath:   "/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg",
		BackdropPath: "/kXfqcdQKsToO0OUXHcrrNCHDBzO.jpg",
		ReleaseDate:  "1994-09-23",
		VoteAverage:  8.7,
		Overview:     "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.",
	},
	{
		ID:           2,
		Title:        "The Godfather",
		PosterPath:   "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg",
		BackdropPath: "/tmU7GeKVybMWFButWEGl2M4GeiP.jpg",
		ReleaseDate:  "1972-03-14",
		VoteAverage:  8.7,
		Overview:     "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
	},
	{
		ID:           3,
		Title:        "The Dark Knight",
		PosterPath:   "/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
		BackdropPath: "/hkBaDkMWbLaf8B1lsWsKX7Ew3Xq.jpg",
		ReleaseDate:  "2008-07-16",
		VoteAverage:  8.5,
		Overview:     "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological and physical tests.",
	},
	{
		ID:           4,
		Title:        "Pulp Fiction",
		PosterPath:   "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg",
		BackdropPath: "/4cDFJr4HnXN5AdPw4AKrmLlMWdO.jpg",
		ReleaseDate:  "1994-09-10",
		VoteAverage:  8.5,
		Overview:     "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption.",
	},
	{
		ID:           5,
		Title:        "Inception",
		PosterPath:   "/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg",
		BackdropPath: "/s3TBrRGB1iav7gFOCNx3H31MoES.jpg",
		ReleaseDate:  "2010-07-15",
		VoteAverage:  8.4,
		Overview:     "A thief who steals corporate secrets through the use of dream-sharing technology is given the inverse task of planting an idea.",
	},
	{
		ID:           6,
		Title:        "Interstellar",
		PosterPath:   "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
		BackdropPath: "/xu9zaAevzQ5nnrsXN6JcahLnG4i.jpg",
		ReleaseDate:  "2014-11-05",
		VoteAverage:  8.4,
		Overview:     "A team of explorers travel through a wormhole in space in an attempt to ensure humanity's survival.",
	},
}

// MockMovies returns a copy of the offline catalogue.
func MockMovies() []Movie {
	out := make([]Movie, len(mockMovies))
	copy(out, mockMovies)
	return out
}

func mockPage() *Page {
	return &Page{Page: 1, Results: MockMovies(), TotalPages: 1, TotalResults: len(mockMovies)}
}

// searchMock matches titles case-insensitively.
func searchMock(query string) *Page {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []Movie{}
	for _, m := range mockMovies {
		if q == "" || strings.Contains(strings.ToLower(m.Title), q) {
			results = append(results, m)
		}
	}
	return &Page{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)}
}

func mockDetails(id int) (*Details, error) {
	for _, m := range mockMovies {
		if m.ID == id {
			return &Details{Movie: m}, nil
		}
	}
	return nil, ErrNotFound
}
