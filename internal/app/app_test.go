package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/session"
)

func testModel() AppModel {
	state := progress.NewState()
	return newAppModel(screen.Deps{
		Runner: session.NewRunner(session.Config{State: state}),
		Query:  catalog.Query{UserID: "demo-user", Limit: 10},
	})
}

func TestStatusShowsAccuracy(t *testing.T) {
	m := testModel()
	assert.Equal(t, "demo-user", m.status())

	st := m.deps.Runner.State()
	st.TotalAnswers = 4
	st.TotalCorrect = 3
	assert.Equal(t, "demo-user  3/4 (75%)", m.status())
}

func TestEscAtRootDoesNothing(t *testing.T) {
	m := testModel()
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
}

func TestEscPopsPushedScreen(t *testing.T) {
	m := testModel()
	m.router.Push(m.router.Active())
	require.Equal(t, 2, m.router.Depth())

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestViewTooSmall(t *testing.T) {
	model, _ := testModel().Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	v := model.(AppModel).View()
	assert.True(t, v.AltScreen)
}
