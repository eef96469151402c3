package model

import (
	"fmt"

	"github.com/Gogfather/thegogfather.com/internal/shared/errors"
)

// Collection names for the five content collections.
const (
	CollectionPhotos = "photos"
	CollectionVideos = "videos"
	CollectionMusic  = "music"
	CollectionArt    = "art"
	CollectionBlog   = "blog"
)

// Collections lists every content collection in subscription order.
var Collections = []string{
	CollectionPhotos,
	CollectionVideos,
	CollectionMusic,
	CollectionArt,
	CollectionBlog,
}

// requiredFields maps each collection to the fields that must be non-empty on
// create. Validation happens before any store call; the store itself does not
// validate.
var requiredFields = map[string][]string{
	CollectionPhotos: {"url", "caption"},
	CollectionVideos: {"externalVideoId", "title"},
	CollectionMusic:  {"title", "subtitle", "link"},
	CollectionArt:    {"title", "imageUrl", "description"},
	CollectionBlog:   {"title", "excerpt", "content"},
}

// KnownCollection reports whether name is one of the five content collections.
func KnownCollection(name string) bool {
	_, ok := requiredFields[name]
	return ok
}

// RequiredFields returns the required field names for a collection.
func RequiredFields(collection string) ([]string, error) {
	fields, ok := requiredFields[collection]
	if !ok {
		return nil, errors.ErrUnknownCollection
	}
	return fields, nil
}

// CollectionPath builds the logical storage path for a collection under a
// namespace: artifacts/{N}/public/data/{collection}. The same path names the
// realtime stream for the collection.
func CollectionPath(namespace, collection string) string {
	return fmt.Sprintf("artifacts/%s/public/data/%s", namespace, collection)
}
