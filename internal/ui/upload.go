package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/tasks"
)

// Form field order. File path and netdisk URL are alternatives; whichever is
// filled decides the upload mode.
const (
	fieldName = iota
	fieldNameEN
	fieldCategory
	fieldDescription
	fieldFilePath
	fieldNetdiskURL
	fieldNetdiskType
	fieldCount
)

// uploadForm is the submission form state.
type uploadForm struct {
	inputs []textinput.Model
	focus  int
}

func newUploadForm() uploadForm {
	labels := []string{
		"Name", "Name (EN)", "Category", "Description",
		"File path", "Netdisk URL", "Netdisk type (quark/baidu/aliyun)",
	}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		input := textinput.New()
		input.Placeholder = labels[i]
		input.CharLimit = 300
		inputs[i] = input
	}
	inputs[fieldName].Focus()

	return uploadForm{inputs: inputs}
}

func (f *uploadForm) next() {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *uploadForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

func (f *uploadForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = fieldName
	f.inputs[fieldName].Focus()
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.teardown()
		return m, tea.Quit
	case "tab":
		m.cycleView()
		return m, nil
	case "esc":
		m.view = ChatView
		return m, nil
	case "down", "enter":
		if msg.String() == "enter" && m.uploadForm.focus == fieldCount-1 {
			return m, m.submitUpload()
		}
		m.uploadForm.next()
		return m, nil
	case "ctrl+s":
		return m, m.submitUpload()
	}

	var cmd tea.Cmd
	m.uploadForm.inputs[m.uploadForm.focus], cmd = m.uploadForm.inputs[m.uploadForm.focus].Update(msg)
	return m, cmd
}

// submitUpload validates the form, submits through the gateway, and starts
// the progress tracker on acceptance.
func (m *Model) submitUpload() tea.Cmd {
	if m.uploadEvents != nil {
		return notify("an upload is already in progress", false)
	}

	form := &m.uploadForm
	meta := models.GameUpload{
		Name:        form.value(fieldName),
		NameEN:      form.value(fieldNameEN),
		Category:    form.value(fieldCategory),
		Description: form.value(fieldDescription),
		NetdiskURL:  form.value(fieldNetdiskURL),
		NetdiskType: form.value(fieldNetdiskType),
	}
	filePath := form.value(fieldFilePath)

	if meta.Name == "" {
		return notify("name is required", false)
	}
	if filePath == "" && meta.NetdiskURL == "" {
		return notify("provide a file path or a netdisk URL", false)
	}

	uploadID := shared.UploadID()
	return func() tea.Msg {
		var err error
		if filePath != "" {
			err = m.gateway.UploadFile(m.ctx, filePath, meta, uploadID, nil)
		} else {
			err = m.gateway.UploadNetdisk(m.ctx, meta, uploadID)
		}
		return uploadSubmittedMsg{uploadID: uploadID, err: err}
	}
}

func (m *Model) applyUploadSubmitted(msg uploadSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, notify(fmt.Sprintf("upload failed: %v", msg.err), false)
	}

	m.uploadID = msg.uploadID
	m.uploadState = tasks.UploadRunning
	m.uploadErrMsg = ""
	m.uploadEvents = m.tracker.Start(m.ctx, msg.uploadID)
	return m, tea.Batch(m.waitForUpload(), m.uploadBar.SetPercent(0))
}

// waitForUpload blocks on the tracker channel and converts the next event
// into a bubbletea message.
func (m *Model) waitForUpload() tea.Cmd {
	events := m.uploadEvents
	return func() tea.Msg {
		update, ok := <-events
		if !ok {
			return uploadChannelClosedMsg{}
		}
		return uploadTickMsg(update)
	}
}

func (m *Model) applyUploadTick(msg uploadTickMsg) (tea.Model, tea.Cmd) {
	m.uploadState = msg.State
	cmds := []tea.Cmd{m.waitForUpload(), m.uploadBar.SetPercent(float64(msg.Percent) / 100)}

	if msg.Terminal {
		switch msg.State {
		case tasks.UploadDone:
			m.uploadForm.reset()
			cmds = append(cmds,
				notify("upload complete", true),
				m.fetchGames(),
				tea.Tick(2*time.Second, func(time.Time) tea.Msg { return uploadFinishedMsg{} }),
			)
		case tasks.UploadFailed:
			m.uploadErrMsg = msg.Message
			cmds = append(cmds, notify(fmt.Sprintf("upload failed: %s", msg.Message), false))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upload a Game"))
	b.WriteString("\n")

	for i := range m.uploadForm.inputs {
		b.WriteString(m.uploadForm.inputs[i].View())
		b.WriteString("\n")
	}

	if m.uploadEvents != nil || m.uploadID != "" {
		b.WriteString("\n")
		b.WriteString(m.uploadBar.View())
		b.WriteString("\n")
		switch m.uploadState {
		case tasks.UploadRunning:
			b.WriteString(styles.status.Render(fmt.Sprintf("uploading %s...", m.uploadID)))
		case tasks.UploadDone:
			b.WriteString(styles.ok.Render("✓ upload complete"))
		case tasks.UploadFailed:
			b.WriteString(styles.err.Render(fmt.Sprintf("✗ %s", m.uploadErrMsg)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render("enter: next field • ctrl+s: submit • tab: next view"))
	return b.String()
}
