package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"remix-console/internal/api"
	"remix-console/internal/model"
)

type editMode int

const (
	editModeBrowse editMode = iota
	editModeForm
)

type editFieldKind int

const (
	editFieldInt editFieldKind = iota
	editFieldBool
	editFieldSelect
	editFieldString
)

type editFormField struct {
	Key     string
	Label   string
	Help    string
	Kind    editFieldKind
	Value   string
	Options []string
}

type editForm struct {
	Strategy string
	Title    string
	Fields   []editFormField
	Index    int
	Input    textinput.Model
	Error    string
	Saving   bool
}

type editModel struct {
	client  *api.Client
	catalog model.StrategyCatalog
	blob    []byte
	loaded  bool
	cursor  int
	width   int
	height  int
	mode    editMode
	form    *editForm

	statusMessage string
	fatalErr      error
}

type editLoadedMsg struct {
	catalog model.StrategyCatalog
	blob    []byte
	err     error
}

type editSavedMsg struct {
	strategy string
	blob     []byte
	err      error
}

var (
	editTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	editMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	editErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	editOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	editPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	editSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runConfigEdit(args []string) error {
	fs := flag.NewFlagSet("config edit", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("config edit requires an interactive terminal (TTY); use 'config set' instead")
	}

	m := editModel{client: newClient(*url), mode: editModeBrowse}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("config edit requires an interactive terminal (TTY); use 'config set' instead")
		}
		return err
	}
	if fm, ok := finalModel.(editModel); ok {
		return fm.fatalErr
	}
	return nil
}

func (m editModel) Init() tea.Cmd {
	return loadEditorCmd(m.client)
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.form != nil {
			m.form = resizeEditInput(m.form, m.width)
		}
		return m, nil
	case editLoadedMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, tea.Quit
		}
		m.catalog = msg.catalog
		m.blob = msg.blob
		m.loaded = true
		if m.cursor >= len(m.catalog.Strategies) {
			m.cursor = maxInt(len(m.catalog.Strategies)-1, 0)
		}
		return m, nil
	case editSavedMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.Error = msg.err.Error()
				m.form.Saving = false
			}
			return m, nil
		}
		m.mode = editModeBrowse
		m.form = nil
		m.blob = msg.blob
		m.statusMessage = "updated strategy: " + msg.strategy
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case editModeForm:
		return m.updateForm(keyMsg)
	default:
		return m.updateBrowse(keyMsg)
	}
}

func (m editModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.catalog.Strategies)-1 {
			m.cursor++
		}
		return m, nil
	case "r":
		m.statusMessage = "reloading..."
		return m, loadEditorCmd(m.client)
	case "enter", "e":
		if !m.loaded || len(m.catalog.Strategies) == 0 {
			m.statusMessage = "no strategies loaded yet"
			return m, nil
		}
		info := m.catalog.Strategies[m.cursor]
		m.mode = editModeForm
		m.form = newEditForm(info, m.catalog, m.blob, m.width)
		m.statusMessage = ""
		return m, nil
	}
	return m, nil
}

func (m editModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = editModeBrowse
		return m, nil
	}
	if m.form.Saving {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	switch key {
	case "ctrl+c", "esc":
		m.mode = editModeBrowse
		m.form = nil
		m.statusMessage = "edit cancelled"
		return m, nil
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case " ", "space":
		switch m.form.currentField().Kind {
		case editFieldBool:
			m.form.toggleBoolField()
			return m, nil
		case editFieldSelect:
			m.form.cycleSelectOption(1)
			return m, nil
		}
	case "left", "h":
		switch m.form.currentField().Kind {
		case editFieldBool:
			m.form.toggleBoolField()
			return m, nil
		case editFieldSelect:
			m.form.cycleSelectOption(-1)
			return m, nil
		}
	case "right", "l":
		switch m.form.currentField().Kind {
		case editFieldBool:
			m.form.toggleBoolField()
			return m, nil
		case editFieldSelect:
			m.form.cycleSelectOption(1)
			return m, nil
		}
	case "y":
		if m.form.currentField().Kind == editFieldBool {
			m.form.setBoolField(true)
			return m, nil
		}
	case "n":
		if m.form.currentField().Kind == editFieldBool {
			m.form.setBoolField(false)
			return m, nil
		}
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		patch, err := m.form.toConfigPatch()
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.form.Error = ""
		m.form.Saving = true
		return m, saveStrategyCmd(m.client, m.form.Strategy, patch)
	}

	kind := m.form.currentField().Kind
	if kind == editFieldBool || kind == editFieldSelect {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func (m editModel) View() string {
	if m.fatalErr != nil {
		return editErrorStyle.Render("fatal: " + m.fatalErr.Error())
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}
	if m.mode == editModeForm {
		return m.viewForm()
	}
	return m.viewBrowse()
}

func (m editModel) viewBrowse() string {
	header := editTitleStyle.Render("remix-console config editor") + "\n" +
		editMutedStyle.Render("up/down: move | enter/e: edit | r: reload | q: quit")

	if m.width < 90 {
		body := lipgloss.JoinVertical(lipgloss.Left, m.renderStrategyList(m.width), m.renderStrategyDetails(m.width))
		return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
	}

	leftW := clampInt(m.width/2, 34, 56)
	rightW := m.width - leftW - 1
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderStrategyList(leftW), m.renderStrategyDetails(rightW))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
}

func (m editModel) renderStrategyList(width int) string {
	lines := make([]string, 0, len(m.catalog.Strategies)+2)
	if !m.loaded {
		lines = append(lines, editMutedStyle.Render("Loading strategies..."))
	} else if len(m.catalog.Strategies) == 0 {
		lines = append(lines, editMutedStyle.Render("The backend reported no strategies."))
	}
	for i, s := range m.catalog.Strategies {
		base := "strategies." + s.ID + "."
		line := fmt.Sprintf("%s (%s)  stickers=%d sparkles=%d",
			s.ID, s.Name,
			blobInt(m.blob, base+"sticker_count", s.Defaults.StickerCount),
			blobInt(m.blob, base+"sparkle_count", s.Defaults.SparkleCount))
		line = truncateRunes(line, maxInt(width-6, 10))
		if i == m.cursor {
			line = editSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	return editPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m editModel) renderStrategyDetails(width int) string {
	lines := []string{}
	if m.loaded && m.cursor < len(m.catalog.Strategies) {
		s := m.catalog.Strategies[m.cursor]
		base := "strategies." + s.ID + "."
		lines = append(lines, "Strategy Parameters")
		lines = append(lines, "")
		if strings.TrimSpace(s.Description) != "" {
			lines = append(lines, s.Description)
			lines = append(lines, "")
		}
		lines = append(lines, kv("sticker_count", strconv.Itoa(blobInt(m.blob, base+"sticker_count", s.Defaults.StickerCount))))
		lines = append(lines, kv("sparkle_count", strconv.Itoa(blobInt(m.blob, base+"sparkle_count", s.Defaults.SparkleCount))))
		lines = append(lines, kv("sparkle_style", blobString(m.blob, base+"sparkle_style", strategyFallbackPreset(s))))
		lines = append(lines, kv("color_scheme", blobString(m.blob, base+"color_scheme", "random")))
		for _, toggle := range strategyToggles {
			lines = append(lines, kv(toggle.key, yesNo(blobBool(m.blob, base+toggle.key, true))))
		}
		lines = append(lines, "")
		lines = append(lines, "Press Enter to edit.")
	} else {
		lines = append(lines, "Strategy Parameters")
		lines = append(lines, "")
		lines = append(lines, "Select a strategy on the left.")
	}

	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return editPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m editModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		msg = "Tip: changes deep-merge into the backend config; other strategies stay untouched."
	}
	style := editMutedStyle
	if strings.HasPrefix(strings.ToLower(msg), "error:") {
		style = editErrorStyle
	} else if strings.HasPrefix(strings.ToLower(msg), "updated") {
		style = editOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m editModel) viewForm() string {
	if m.form == nil {
		return ""
	}
	header := editTitleStyle.Render(m.form.Title)
	hints := editMutedStyle.Render("tab/shift+tab or up/down: move | left/right/space: toggle | y/n: set yes/no | enter: next/save | ctrl+s: save | esc: cancel")

	lines := make([]string, 0, len(m.form.Fields)+6)
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if f.Kind == editFieldBool {
			v, _ := parseBool(display)
			display = yesNo(v)
		}
		if display == "" {
			display = editMutedStyle.Render("(empty)")
		}
		if f.Kind == editFieldSelect {
			display = "[" + display + "]"
		}
		line := fmt.Sprintf("%s%s: %s", prefix, f.Label, display)
		lines = append(lines, wrapOrTrim(line, maxInt(m.width-6, 20)))
	}

	curr := m.form.currentField()
	inputLabel := fmt.Sprintf("\n%s\n", curr.Label)
	inputHelp := ""
	if strings.TrimSpace(curr.Help) != "" {
		inputHelp = editMutedStyle.Render(curr.Help) + "\n"
	}
	status := ""
	if m.form.Saving {
		status = editMutedStyle.Render("\nSaving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		status = "\n" + editErrorStyle.Render(m.form.Error)
	}

	panel := editPanelStyle.Width(maxInt(m.width, 40)).Render(strings.Join(lines, "\n") + inputLabel + inputHelp + m.form.Input.View() + status)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func loadEditorCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		catalog, err := client.Strategies(ctx)
		if err != nil {
			return editLoadedMsg{err: err}
		}
		blob, err := client.Config(ctx)
		if err != nil {
			return editLoadedMsg{err: err}
		}
		return editLoadedMsg{catalog: catalog, blob: blob}
	}
}

func saveStrategyCmd(client *api.Client, strategy string, patch map[string]any) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := client.PutConfig(ctx, patch); err != nil {
			return editSavedMsg{strategy: strategy, err: err}
		}
		blob, err := client.Config(ctx)
		if err != nil {
			return editSavedMsg{strategy: strategy, err: err}
		}
		return editSavedMsg{strategy: strategy, blob: blob}
	}
}

// strategyToggles are the per-strategy effect switches the backend honors.
var strategyToggles = []struct {
	key   string
	label string
	help  string
}{
	{"enable_particles", "Particles", "Floating particle overlay"},
	{"enable_decorations", "Decorations", "Corner decoration images"},
	{"enable_border", "Border", "Colored frame around the video"},
	{"enable_color_preset", "Color Preset", "Strategy color grading"},
	{"enable_audio_fx", "Audio FX", "Pitch/tempo perturbation"},
}

func newEditForm(info model.StrategyInfo, catalog model.StrategyCatalog, blob []byte, width int) *editForm {
	base := "strategies." + info.ID + "."
	presets := catalog.StrategyPresets
	if len(presets) == 0 {
		presets = model.StrategyPresets
	}

	f := &editForm{
		Strategy: info.ID,
		Title:    "Edit Strategy: " + info.ID,
		Fields: []editFormField{
			{Key: "sticker_count", Label: "Sticker Count", Help: "How many stickers land on each output", Kind: editFieldInt,
				Value: strconv.Itoa(blobInt(blob, base+"sticker_count", info.Defaults.StickerCount))},
			{Key: "sparkle_count", Label: "Sparkle Count", Help: "Animated sparkles per output", Kind: editFieldInt,
				Value: strconv.Itoa(blobInt(blob, base+"sparkle_count", info.Defaults.SparkleCount))},
			{Key: "sparkle_style", Label: "Sparkle Style", Help: "Color preset for the sparkle layer", Kind: editFieldSelect,
				Value: blobString(blob, base+"sparkle_style", strategyFallbackPreset(info)), Options: presets},
			{Key: "color_scheme", Label: "Color Scheme", Help: "random rotates border and text colors per output", Kind: editFieldString,
				Value: blobString(blob, base+"color_scheme", "random")},
		},
	}
	for _, toggle := range strategyToggles {
		f.Fields = append(f.Fields, editFormField{
			Key:   toggle.key,
			Label: toggle.label,
			Help:  toggle.help,
			Kind:  editFieldBool,
			Value: boolToYN(blobBool(blob, base+toggle.key, true)),
		})
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func strategyFallbackPreset(info model.StrategyInfo) string {
	if strings.TrimSpace(info.Defaults.Preset) != "" {
		return info.Defaults.Preset
	}
	return model.DefaultPreset(info.ID)
}

func (f *editForm) currentField() editFormField {
	if len(f.Fields) == 0 {
		return editFormField{}
	}
	if f.Index < 0 {
		f.Index = 0
	}
	if f.Index >= len(f.Fields) {
		f.Index = len(f.Fields) - 1
	}
	return f.Fields[f.Index]
}

func (f *editForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *editForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

func (f *editForm) toggleBoolField() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != editFieldBool {
		return
	}
	v, ok := parseBool(curr.Value)
	if !ok {
		v = false
	}
	curr.Value = boolToYN(!v)
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

func (f *editForm) setBoolField(v bool) {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != editFieldBool {
		return
	}
	curr.Value = boolToYN(v)
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

func (f *editForm) cycleSelectOption(step int) {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != editFieldSelect || len(curr.Options) == 0 {
		return
	}
	current := strings.TrimSpace(curr.Value)
	pos := 0
	for i, opt := range curr.Options {
		if strings.EqualFold(opt, current) {
			pos = i
			break
		}
	}
	pos = (pos + step + len(curr.Options)) % len(curr.Options)
	curr.Value = curr.Options[pos]
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

// toConfigPatch shapes the form into the partial document PUT /api/config
// deep-merges, touching only this strategy's keys.
func (f *editForm) toConfigPatch() (map[string]any, error) {
	values := make(map[string]any, len(f.Fields))
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		switch field.Kind {
		case editFieldInt:
			n, err := strconv.Atoi(defaultIfEmpty(v, "0"))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s must be an integer >= 0", strings.ToLower(field.Label))
			}
			values[field.Key] = n
		case editFieldBool:
			b, ok := parseBool(v)
			if !ok {
				return nil, fmt.Errorf("%s must be y or n", strings.ToLower(field.Label))
			}
			values[field.Key] = b
		case editFieldSelect:
			matched := false
			for _, opt := range field.Options {
				if strings.EqualFold(opt, v) {
					values[field.Key] = opt
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("%s must be one of: %s", strings.ToLower(field.Label), strings.Join(field.Options, ", "))
			}
		default:
			if v == "" {
				return nil, fmt.Errorf("%s is required", strings.ToLower(field.Label))
			}
			values[field.Key] = v
		}
	}
	return map[string]any{"strategies": map[string]any{f.Strategy: values}}, nil
}
