package model

import (
	"time"
)

// Record is one content entry in any of the five collections. Entity fields
// (url, caption, title, ...) live in Fields; id, timestamp, owner and the
// photo feature flag are first-class. OwnerID records the identity that
// created the record but does not restrict later mutation: any authorized
// identity may feature or delete any record.
type Record struct {
	ID         string                 `json:"id" bson:"_id"`
	Namespace  string                 `json:"namespace" bson:"namespace"`
	Collection string                 `json:"collection" bson:"collection"`
	OwnerID    string                 `json:"ownerId" bson:"owner_id"`
	IsFeatured bool                   `json:"isFeatured" bson:"is_featured"`
	CreatedAt  time.Time              `json:"timestamp" bson:"created_at"`
	Fields     map[string]interface{} `json:"fields" bson:"fields"`
}

// Field returns the named entity field as a string, or "" when absent or not
// a string.
func (r *Record) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	s, _ := r.Fields[name].(string)
	return s
}

// Path returns the record's logical path: the collection path plus the id.
func (r *Record) Path() string {
	return CollectionPath(r.Namespace, r.Collection) + "/" + r.ID
}

// Data flattens the record for event payloads and wire frames.
func (r *Record) Data() map[string]interface{} {
	data := make(map[string]interface{}, len(r.Fields)+4)
	for k, v := range r.Fields {
		data[k] = v
	}
	data["id"] = r.ID
	data["ownerId"] = r.OwnerID
	data["timestamp"] = r.CreatedAt.Format(time.RFC3339Nano)
	if r.Collection == CollectionPhotos {
		data["isFeatured"] = r.IsFeatured
	}
	return data
}

// RecordFromData rebuilds a Record from an event payload produced by Data.
// Used by live mirrors consuming the echo of their own writes.
func RecordFromData(namespace, collection string, data map[string]interface{}) Record {
	rec := Record{
		Namespace:  namespace,
		Collection: collection,
		Fields:     make(map[string]interface{}),
	}
	for k, v := range data {
		switch k {
		case "id":
			rec.ID, _ = v.(string)
		case "ownerId":
			rec.OwnerID, _ = v.(string)
		case "isFeatured":
			rec.IsFeatured, _ = v.(bool)
		case "timestamp":
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					rec.CreatedAt = ts
				}
			} else if ts, ok := v.(time.Time); ok {
				rec.CreatedAt = ts
			}
		default:
			rec.Fields[k] = v
		}
	}
	return rec
}
