package catalog

import (
	"fmt"
	"math"
	"math/rand"

	"kelasku/backend/internal/domain"
)

const (
	DefaultSize = 60
	DefaultSeed = 20240611
)

var Categories = []string{
	"programming",
	"design",
	"marketing",
	"business",
	"photography",
	"music",
	"language",
}

var Levels = []string{
	domain.LevelBeginner,
	domain.LevelIntermediate,
	domain.LevelAdvanced,
	domain.LevelAllLevels,
}

var topicsByCategory = map[string][]string{
	"programming": {"Go", "Python", "JavaScript", "Rust", "SQL", "Kubernetes", "React", "Data Structures"},
	"design":      {"Figma", "UI Design", "UX Research", "Typography", "Illustrator", "Motion Design", "Branding"},
	"marketing":   {"SEO", "Content Marketing", "Social Media Ads", "Email Marketing", "Copywriting", "Analytics"},
	"business":    {"Financial Modeling", "Project Management", "Negotiation", "Startup Strategy", "Excel", "Leadership"},
	"photography": {"Portrait Photography", "Lightroom", "Street Photography", "Product Photography", "Drone Filming"},
	"music":       {"Guitar", "Piano", "Music Production", "Songwriting", "Mixing and Mastering", "Music Theory"},
	"language":    {"English", "Japanese", "Spanish", "German", "Korean", "Business English"},
}

var titlePatterns = []string{
	"%s Fundamentals",
	"Complete %s Bootcamp",
	"%s for Professionals",
	"Practical %s",
	"%s Masterclass",
	"%s in 30 Days",
}

var instructors = []string{
	"Andi Pratama", "Sari Wulandari", "Budi Santoso", "Maya Putri", "Rizky Hidayat",
	"Dewi Lestari", "Fajar Nugroho", "Intan Permata", "Yoga Saputra", "Nadia Rahma",
}

// Generate builds a deterministic course catalog. The same size and seed
// always yield the same products in the same order.
func Generate(size int, seed int64) []domain.Product {
	if size < 0 {
		size = 0
	}
	rnd := rand.New(rand.NewSource(seed)) //nolint:gosec // catalog content, not security sensitive

	products := make([]domain.Product, 0, size)
	used := make(map[string]struct{}, size)
	var round []int
	for i := 0; i < size; i++ {
		// Categories are dealt in shuffled rounds so each one gets an equal share.
		if i%len(Categories) == 0 {
			round = rnd.Perm(len(Categories))
		}
		category := Categories[round[i%len(Categories)]]
		topics := topicsByCategory[category]
		topic := topics[rnd.Intn(len(topics))]
		name := fmt.Sprintf(titlePatterns[rnd.Intn(len(titlePatterns))], topic)
		if _, dup := used[name]; dup {
			name = fmt.Sprintf("%s (Vol. %d)", name, i+1)
		}
		used[name] = struct{}{}

		level := Levels[rnd.Intn(len(Levels))]
		price := int64(99000 + rnd.Intn(2401)*1000)
		rating := math.Round((3.5+rnd.Float64()*1.5)*10) / 10
		hours := 2 + rnd.Intn(38)
		id := i + 1

		products = append(products, domain.Product{
			ID:               id,
			Name:             name,
			Price:            price,
			Image:            fmt.Sprintf("https://picsum.photos/seed/course-%d/640/360", id),
			ShortDescription: fmt.Sprintf("Learn %s step by step with hands-on projects.", topic),
			FullDescription: fmt.Sprintf(
				"%s takes you from the basics of %s to confident, real-world practice. "+
					"Suited for %s learners, with %d hours of video, exercises and a final project.",
				name, topic, level, hours,
			),
			Rating:     rating,
			Reviews:    rnd.Intn(1201),
			Category:   category,
			Instructor: instructors[rnd.Intn(len(instructors))],
			Duration:   fmt.Sprintf("%d hours", hours),
			Level:      level,
		})
	}
	return products
}
