package models

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const KindVideo = "youtube#video"

// Item is one match returned by the search provider.
type Item struct {
	Kind         string
	ID           string
	Title        string
	ThumbnailURL string // high-resolution variant, empty when the provider omitted it
}

func (it Item) IsVideo() bool { return it.Kind == KindVideo }

type ResultEntry struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// ResultMap is keyed by OrdinalKey in discovery order.
type ResultMap = orderedmap.OrderedMap[string, ResultEntry]

func NewResultMap() *ResultMap {
	return orderedmap.New[string, ResultEntry]()
}

const ordinalPrefix = "output"

func OrdinalKey(i int) string {
	return ordinalPrefix + strconv.Itoa(i)
}
