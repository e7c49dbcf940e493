package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedPage(n int) []byte {
	var sb strings.Builder
	sb.WriteString("<html><body><main>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `<div class="feed-shared-update-v2"><span class="break-words">Post %d</span>
<button class="feed-shared-inline-show-more-text__button">…see more</button></div>`, i)
	}
	sb.WriteString("</main></body></html>")
	return []byte(sb.String())
}

func TestSnapshotRevealsOnScroll(t *testing.T) {
	ctx := context.Background()
	snap, err := NewSnapshot(feedPage(7), DefaultSnapshotOptions())
	require.NoError(t, err)

	items, err := snap.QueryAll(ctx, "div.feed-shared-update-v2")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	var h1, h2 float64
	require.NoError(t, snap.Evaluate(ctx, ScriptPageHeight, &h1))
	require.NoError(t, snap.Evaluate(ctx, ScriptSmoothScrollToBottom, nil))
	require.NoError(t, snap.Evaluate(ctx, ScriptPageHeight, &h2))
	assert.Greater(t, h2, h1)

	require.NoError(t, snap.Evaluate(ctx, ScriptScrollToBottom, nil))
	require.NoError(t, snap.Evaluate(ctx, ScriptScrollToBottom, nil))
	assert.Equal(t, 7, snap.Revealed(), "reveal never exceeds the page")

	var h3, h4 float64
	require.NoError(t, snap.Evaluate(ctx, ScriptPageHeight, &h3))
	require.NoError(t, snap.Evaluate(ctx, ScriptScrollToBottom, nil))
	require.NoError(t, snap.Evaluate(ctx, ScriptPageHeight, &h4))
	assert.Equal(t, h3, h4, "height stops growing once everything is shown")
}

func TestSnapshotHidesNestedNodes(t *testing.T) {
	ctx := context.Background()
	snap, err := NewSnapshot(feedPage(5), DefaultSnapshotOptions())
	require.NoError(t, err)

	buttons, err := snap.QueryAll(ctx, "button")
	require.NoError(t, err)
	assert.Len(t, buttons, 3)
}

func TestSnapshotElementTextAndClick(t *testing.T) {
	ctx := context.Background()
	snap, err := NewSnapshot(feedPage(1), DefaultSnapshotOptions())
	require.NoError(t, err)

	items, err := snap.QueryAll(ctx, "div.feed-shared-update-v2")
	require.NoError(t, err)
	require.Len(t, items, 1)

	body, err := items[0].QueryAll(ctx, ".break-words")
	require.NoError(t, err)
	require.Len(t, body, 1)
	text, err := body[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Post 1", text)

	buttons, err := items[0].QueryAll(ctx, "button")
	require.NoError(t, err)
	require.NoError(t, buttons[0].Click(ctx))
	label, _ := buttons[0].Text(ctx)
	assert.Equal(t, "see less", label)
	assert.Equal(t, 1, snap.Clicks())
}

func TestSnapshotLauncherFreshSessions(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("wrong password")
	opts := DefaultSnapshotOptions()
	opts.Login = func(email, password string) error {
		if password != "secret" {
			return denied
		}
		return nil
	}
	l := NewSnapshotLauncher(feedPage(4), opts)

	s1, err := l.Launch(ctx)
	require.NoError(t, err)
	require.NoError(t, s1.Evaluate(ctx, ScriptScrollToBottom, nil))
	assert.ErrorIs(t, s1.Login(ctx, "a@b.c", "nope"), denied)
	require.NoError(t, s1.Close())

	s2, err := l.Launch(ctx)
	require.NoError(t, err)
	require.NoError(t, s2.Login(ctx, "a@b.c", "secret"))

	sessions := l.Sessions()
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Closed())
	assert.Equal(t, 4, sessions[0].Revealed())
	assert.Equal(t, 3, sessions[1].Revealed())
	assert.True(t, sessions[1].LoggedIn())
}

func TestScrollTo(t *testing.T) {
	assert.Equal(t, "window.scrollTo(0, 1520);", ScrollTo(1520.7))
}
