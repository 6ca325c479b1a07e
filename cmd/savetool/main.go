package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/davide97g/mini-world/internal/display"
	"github.com/davide97g/mini-world/internal/storage"
	"github.com/davide97g/mini-world/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const detailTemplate = `[yellow]{{ .WorldName | title }}[-]

World ID:    {{ .WorldID }}
Created:     {{ .Created }}
Last played: {{ .LastPlayed }}
Play time:   {{ .PlayTime }}
{{- if .Position }}
Position:    ({{ printf "%.0f" .Position.X }}, {{ printf "%.0f" .Position.Y }})
{{- end }}
{{- if .Energy }}
Energy:      {{ printf "%.0f" .Energy }}
{{- end }}

Inventory:
{{- if .Inventory }}
{{- range $item, $qty := .Inventory }}
  {{ $item }}: {{ $qty }}
{{- end }}
{{- else }}
  (empty)
{{- end }}

Collected tiles: {{ .CollectedTiles }}
Placed tiles:    {{ .PlacedTiles }}
Hidden tiles:    {{ .HiddenTiles }}
`

type detailData struct {
	WorldName      string
	WorldID        string
	Created        string
	LastPlayed     string
	PlayTime       string
	Position       *world.Position
	Energy         *float64
	Inventory      map[string]int
	CollectedTiles int
	PlacedTiles    int
	HiddenTiles    int
}

func main() {
	path := flag.String("path", ".", "save store directory")
	deleteID := flag.String("delete", "", "delete the given world id and exit")
	flag.Parse()

	store, err := storage.NewFileStore(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening save store: %v\n", err)
		os.Exit(1)
	}
	model := world.NewModel(store, world.NewRegistry(store))

	if *deleteID != "" {
		err := deleteWorld(model, *deleteID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	err = runBrowser(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "running browser: %v\n", err)
		os.Exit(1)
	}
}

// stdio lets the prompt helper read stdin and write stdout as one stream.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func deleteWorld(model *world.Model, worldID string) error {
	record := model.Load(worldID)
	if record == nil {
		return fmt.Errorf("no readable record for world %s", worldID)
	}

	ok, err := display.PromptYN(stdio{}, fmt.Sprintf("delete world %q (%s)? ", record.WorldName, worldID))
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return nil
	}

	if !model.DeleteWorld(worldID) {
		return fmt.Errorf("deleting world %s", worldID)
	}
	fmt.Println("deleted")
	return nil
}

func runBrowser(model *world.Model) error {
	app := tview.NewApplication()

	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle(" Worlds (d: delete, q: quit) ")

	detail := tview.NewTextView().SetDynamicColors(true)
	detail.SetBorder(true).SetTitle(" Detail ")

	pages := tview.NewPages()

	var worlds []world.Metadata
	reload := func() {
		worlds = model.AllWorlds()
		list.Clear()
		for _, meta := range worlds {
			list.AddItem(meta.WorldName,
				fmt.Sprintf("last played %s, %s total",
					time.UnixMilli(meta.LastPlayedAt).Format("2006-01-02 15:04"),
					world.FormatPlayTime(meta.TotalPlayTime)),
				0, nil)
		}
	}

	showDetail := func(index int) {
		detail.Clear()
		if index < 0 || index >= len(worlds) {
			return
		}
		err := renderDetail(detail, model, worlds[index].WorldID)
		if err != nil {
			fmt.Fprintf(detail, "rendering detail: %v", err)
		}
	}

	list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		showDetail(index)
	})

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'd':
			index := list.GetCurrentItem()
			if index < 0 || index >= len(worlds) {
				return nil
			}
			meta := worlds[index]

			modal := tview.NewModal().
				SetText(fmt.Sprintf("Delete world %q?", meta.WorldName)).
				AddButtons([]string{"Delete", "Cancel"}).
				SetDoneFunc(func(_ int, label string) {
					if label == "Delete" {
						model.DeleteWorld(meta.WorldID)
						reload()
						showDetail(list.GetCurrentItem())
					}
					pages.RemovePage("confirm")
				})
			pages.AddPage("confirm", modal, true, true)
			return nil
		}
		return event
	})

	reload()
	showDetail(0)

	flex := tview.NewFlex().
		AddItem(list, 0, 1, true).
		AddItem(detail, 0, 2, false)
	pages.AddPage("main", flex, true, true)

	return app.SetRoot(pages, true).Run()
}

func renderDetail(w io.Writer, model *world.Model, worldID string) error {
	record := model.Load(worldID)
	if record == nil {
		_, err := fmt.Fprintf(w, "record for %s is missing or unreadable", worldID)
		return err
	}

	collected := 0
	for _, count := range record.Scene.CollectionCounts {
		collected += count
	}

	data := detailData{
		WorldName:      record.WorldName,
		WorldID:        record.WorldID,
		Created:        time.UnixMilli(record.CreatedAt).Format("2006-01-02 15:04"),
		LastPlayed:     time.UnixMilli(record.LastPlayedAt).Format("2006-01-02 15:04"),
		PlayTime:       world.FormatPlayTime(record.TotalPlayTime),
		Position:       record.Position,
		Energy:         record.Energy,
		Inventory:      record.Inventory,
		CollectedTiles: collected,
		PlacedTiles:    len(record.Scene.PlacedTiles),
		HiddenTiles:    len(record.Scene.HiddenTiles),
	}

	tmpl, err := template.New("detail").Funcs(sprig.TxtFuncMap()).Parse(detailTemplate)
	if err != nil {
		return fmt.Errorf("parsing detail template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return fmt.Errorf("executing detail template: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}
