package segment

// B-roll stock assets bundled with the mock pipeline
const (
	ImageCoding  = "assets/broll-coding.jpg"
	ImageMeeting = "assets/broll-meeting.jpg"
	ImageCoffee  = "assets/broll-coffee.jpg"
	ImageCity    = "assets/broll-city.jpg"
)

type fixture struct {
	cue      Cue
	keywords []string
}

var mockFixtures = []fixture{
	{Cue{0, 3.5, "Welcome to our tutorial on building modern web applications."},
		[]string{"tutorial", "web", "applications"}},
	{Cue{3.5, 8.2, "Today we'll be coding a React application with TypeScript and modern tooling."},
		[]string{"coding", "React", "TypeScript"}},
	{Cue{8.2, 12.8, "First, let's set up our development environment and install the necessary packages."},
		[]string{"development", "environment", "packages"}},
	{Cue{12.8, 18.5, "Our team has been working on this project for several months in our downtown office."},
		[]string{"team", "project", "office"}},
	{Cue{18.5, 23.1, "Let me grab a coffee and then we'll dive into the implementation details."},
		[]string{"coffee", "implementation", "details"}},
	{Cue{23.1, 28.7, "The architecture we're building scales well across different city environments."},
		[]string{"architecture", "scales", "city"}},
}

var mockImages = []string{ImageCoding, ImageMeeting, ImageCoding, ImageMeeting, ImageCoffee, ImageCity}

// MockSegments builds the fixed demo transcript. Every call returns fresh slices.
func MockSegments() []Segment {
	segments := make([]Segment, len(mockFixtures))
	for i, f := range mockFixtures {
		segments[i] = Segment{
			ID:       ID(i),
			Start:    f.cue.Start,
			End:      f.cue.End,
			Text:     f.cue.Text,
			Keywords: append([]string(nil), f.keywords...),
			Image:    mockImages[i%len(mockImages)],
		}
	}
	return segments
}
