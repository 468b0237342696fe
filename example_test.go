package liveparams_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/liveparams"
	"github.com/aretw0/liveparams/pkg/adapters/memory"
	"github.com/aretw0/liveparams/pkg/protocol"
)

// ExampleNew drives a panel against the in-memory reference host.
func ExampleNew() {
	host, err := memory.NewFromSpec(memory.HostSpec{
		Documents: []memory.DocumentSpec{{Name: "Bracket v2"}},
	})
	if err != nil {
		log.Fatal(err)
	}
	palette := memory.NewPalette()

	ctx := context.Background()
	panel := liveparams.New(host, palette)
	panel.Open(ctx)
	defer panel.Close()

	msgs, err := panel.HandleJSON(ctx, []byte(`{"action":"create_param","name":"Width","unit":"mm","expression":"10"}`))
	if err != nil {
		log.Fatal(err)
	}
	for _, msg := range msgs {
		out, _ := protocol.Encode(msg)
		fmt.Println(string(out))
	}
	// Output:
	// {"channel":"notification","payload":{"message":"Created 'Width'","type":"success"}}
	// {"channel":"update_ui","payload":{"doc_name":"Bracket","parameters":[{"name":"Width","expression":"10","value":10,"unit":"mm","comment":"","isFavorite":false}]}}
}

// ExamplePanel_Handle_busy shows the write gate while an interactive tool is running.
func ExamplePanel_Handle_busy() {
	host, _ := memory.NewFromSpec(memory.HostSpec{
		ActiveCommand: "RectangularPatternCommand",
		Documents: []memory.DocumentSpec{{
			Name:       "Bracket",
			Parameters: []memory.ParameterSpec{{Name: "Width", Expression: "10 mm", Unit: "mm"}},
		}},
	})

	ctx := context.Background()
	panel := liveparams.New(host, memory.NewPalette())
	panel.Open(ctx)
	defer panel.Close()

	msgs, _ := panel.HandleJSON(ctx, []byte(`{"action":"update_param","name":"Width","value":"20 mm"}`))
	n, _ := msgs[0].Notification()
	fmt.Println(n.Type)
	fmt.Println(n.Message)
	// Output:
	// error
	// -- ERROR --
	//
	// Command 'RectangularPatternCommand' is active.
	//
	// Click the Canvas > Press ESC.
}
