package catalog

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want []string
	}{
		{
			name: "disaster keyword in japanese name",
			doc:  Document{Name: "避難所情報API"},
			want: []string{"disaster"},
		},
		{
			name: "disaster keyword in english description",
			doc:  Document{Name: "Shelter", Description: "evacuation shelter locations"},
			want: []string{"disaster"},
		},
		{
			name: "weather and sensor",
			doc:  Document{Name: "雨量計", Description: "降水量の観測データ"},
			want: []string{"sensor", "weather"},
		},
		{
			name: "facility from attribute description",
			doc: Document{
				Name:       "ReliefHospital",
				Attributes: []Attribute{{Name: "Name", Description: "病院の名称"}},
			},
			want: []string{"facility"},
		},
		{
			name: "keyword in endpoint path",
			doc: Document{
				Name:      "Feed",
				Endpoints: []Endpoint{{Method: "GET", Path: "/v2/entities/camera"}},
			},
			want: []string{"sensor"},
		},
		{
			name: "no tags",
			doc:  Document{Name: "Something else entirely"},
			want: []string{},
		},
		{
			name: "multiple tags sorted and unique",
			doc:  Document{Name: "津波避難ビル", Description: "災害時の避難施設"},
			want: []string{"disaster", "facility"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.doc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	doc := Document{Name: "防災カメラ", Description: "weather and hospital data"}

	first := Classify(&doc)
	for i := 0; i < 10; i++ {
		if got := Classify(&doc); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classify() unstable: %v vs %v", got, first)
		}
	}
}

func TestIsDisasterRelated(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"土砂災害警戒区域", true},
		{"Emergency contact list", true},
		{"気象予報", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDisasterRelated(tt.text); got != tt.want {
			t.Errorf("IsDisasterRelated(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
