package dataset

import "fmt"

// DefaultPlaceholderCount matches the size of the generated sample set the
// interface falls back to when no dataset can be loaded.
const DefaultPlaceholderCount = 10

var placeholderPairs = []QAPair{
	{
		Question:  "What is the dominant color of the sky in this image?",
		Answer:    "The dominant color of the sky is blue with some white clouds.",
		Attribute: "Objects & Attributes",
	},
	{
		Question:  "How many mountains can be seen in the panorama?",
		Answer:    "There are approximately 3-4 distinct mountain peaks visible in the panorama.",
		Attribute: "Objects & Attributes",
	},
	{
		Question:  "What is the relative position of the sun in this panorama?",
		Answer:    "The sun appears to be positioned high in the sky, slightly to the right of the center of the panorama.",
		Attribute: "Spatial Relationships",
	},
	{
		Question:  "How is the landscape oriented in relation to the viewer?",
		Answer:    "The landscape stretches around the viewer in a 360-degree view, with mountains visible on the horizon.",
		Attribute: "Spatial Relationships",
	},
	{
		Question:  "What time of day does this panorama appear to be taken?",
		Answer:    "The panorama appears to be taken during daytime, likely in the middle of the day based on the lighting.",
		Attribute: "View / Scene",
	},
	{
		Question:  "Is this an indoor or outdoor scene?",
		Answer:    "This is an outdoor scene showing a natural landscape.",
		Attribute: "View / Scene",
	},
}

var placeholderAttributes = []string{
	"Objects & Attributes",
	"Spatial Relationships",
	"View / Scene",
}

// Placeholder generates a synthetic dataset of the given size, used when the
// canonical dataset cannot be loaded and no remote task store has content.
func Placeholder(count int) []Item {
	if count <= 0 {
		count = DefaultPlaceholderCount
	}

	items := make([]Item, 0, count)
	for i := 1; i <= count; i++ {
		items = append(items, Item{
			URL: fmt.Sprintf("https://pannellum.org/images/cerro-toco-0%d.jpg", i%5+1),
			Context: fmt.Sprintf(
				"This is a panoramic view of a landscape with mountains, sky, and various natural features. Sample image %d.",
				i,
			),
			Groups: placeholderGroups(),
		})
	}

	return items
}

// PlaceholderQuestions returns the canned question set for items that carry
// no generated QA pairs at all.
func PlaceholderQuestions() []QAPair {
	pairs := make([]QAPair, len(placeholderPairs))
	copy(pairs, placeholderPairs)
	return pairs
}

func placeholderGroups() []AttributeGroup {
	groups := make([]AttributeGroup, 0, len(placeholderAttributes))
	for _, attr := range placeholderAttributes {
		group := AttributeGroup{Attribute: attr}
		for _, pair := range placeholderPairs {
			if pair.Attribute == attr {
				group.Pairs = append(group.Pairs, pair)
			}
		}
		groups = append(groups, group)
	}
	return groups
}
