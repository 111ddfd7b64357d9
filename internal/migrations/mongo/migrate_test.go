package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryStore(t *testing.T) {
	want := []string{
		"agencies", "merchant_assignments",
		"bookings", "passengers", "booking_details",
		"client_profiles", "merchant_profiles", "admin_profiles", "user_accounts",
		"kyc_validations",
	}

	seen := map[string]bool{}
	for _, c := range Collections {
		if seen[c.Name] {
			t.Errorf("collection %s declared twice", c.Name)
		}
		seen[c.Name] = true

		schema, ok := c.Validator["$jsonSchema"].(bson.M)
		if !ok {
			t.Errorf("collection %s has no $jsonSchema validator", c.Name)
			continue
		}
		if required, _ := schema["required"].([]string); len(required) == 0 {
			t.Errorf("collection %s validator has no required fields", c.Name)
		}
		if len(c.Indexes) == 0 {
			t.Errorf("collection %s has no indexes", c.Name)
		}
	}

	for _, name := range want {
		if !seen[name] {
			t.Errorf("missing collection %s", name)
		}
	}
}

func TestUniqueIndexes(t *testing.T) {
	tests := []struct {
		collection string
		firstKey   string
	}{
		{collection: "bookings", firstKey: "reference"},
		{collection: "merchant_assignments", firstKey: "merchant_id"},
		{collection: "passengers", firstKey: "booking_id"},
		{collection: "client_profiles", firstKey: "user_id"},
		{collection: "merchant_profiles", firstKey: "user_id"},
		{collection: "kyc_validations", firstKey: "profile.kind"},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			for _, c := range Collections {
				if c.Name != tt.collection {
					continue
				}
				for _, idx := range c.Indexes {
					keys := idx.Keys.(bson.D)
					if keys[0].Key == tt.firstKey && idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
						return
					}
				}
			}
			t.Errorf("no unique index on %s starting with %s", tt.collection, tt.firstKey)
		})
	}
}
