package queue

import (
	"testing"

	"clipforge/layout"
)

func TestStateTerminal(t *testing.T) {
	cases := []struct {
		state State
		want  bool
	}{
		{StateWaiting, false},
		{StateActive, false},
		{StateCompleted, true},
		{StateFailed, true},
	}
	for _, c := range cases {
		if got := c.state.Terminal(); got != c.want {
			t.Fatalf("%s.Terminal() = %v, want %v", c.state, got, c.want)
		}
	}
}

func TestPayloadValidate(t *testing.T) {
	template := layout.Template{Aspect: layout.AspectVertical, Camera: layout.CameraCenter}

	cases := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{
			"valid with id",
			Payload{Clips: []ClipRequest{{ID: "abc"}}, Template: template},
			false,
		},
		{
			"valid with url only",
			Payload{Clips: []ClipRequest{{URL: "https://cdn.example.com/c.mp4"}}, Template: template},
			false,
		},
		{
			"no clips",
			Payload{Template: template},
			true,
		},
		{
			"clip with no id or url",
			Payload{Clips: []ClipRequest{{ID: "abc"}, {}}, Template: template},
			true,
		},
		{
			"invalid template",
			Payload{
				Clips:    []ClipRequest{{ID: "abc"}},
				Template: layout.Template{Aspect: "4:3", Camera: layout.CameraCenter},
			},
			true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.payload.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}
