package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/models"
)

func user(s string) models.Message {
	return models.Message{Role: models.RoleUser, Content: s}
}

func assistant(s string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: s}
}

func TestEchoTranscript_WritesEachSuffixOnce(t *testing.T) {
	var buf bytes.Buffer
	log := chat.NewLog()
	echo := NewEchoTranscript(log, &buf, "  ")

	echo.Append(user("hi"))
	echo.Append(assistant("Do "))
	echo.ReplaceLast("Do 10 ")
	echo.ReplaceLast("Do 10 reps")
	if !echo.Finish() {
		t.Error("Finish should report an echoed reply")
	}

	if buf.String() != "  Do 10 reps\n\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	msgs := log.Messages()
	if len(msgs) != 2 || msgs[1].Content != "Do 10 reps" {
		t.Errorf("inner transcript not updated: %+v", msgs)
	}
}

func TestEchoTranscript_UserTurnsAreNotEchoed(t *testing.T) {
	var buf bytes.Buffer
	echo := NewEchoTranscript(chat.NewLog(), &buf, "> ")

	echo.Append(user("hello"))
	if buf.Len() != 0 {
		t.Errorf("user turn should not be echoed, got %q", buf.String())
	}
	if echo.Finish() {
		t.Error("Finish should report nothing written")
	}
}

func TestEchoTranscript_OnFirstDeltaRunsOnce(t *testing.T) {
	var buf bytes.Buffer
	echo := NewEchoTranscript(chat.NewLog(), &buf, "")
	calls := 0
	echo.OnFirstDelta(func() { calls++ })

	echo.Append(user("q"))
	echo.Append(assistant("a"))
	echo.ReplaceLast("ab")
	echo.Finish()

	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}

	// Not re-armed for the next reply.
	echo.Append(assistant("c"))
	if calls != 1 {
		t.Errorf("callback should be cleared after use, got %d calls", calls)
	}
}

func TestEchoTranscript_RemoveLastEndsLine(t *testing.T) {
	var buf bytes.Buffer
	log := chat.NewLog()
	echo := NewEchoTranscript(log, &buf, "")

	echo.Append(user("q"))
	echo.Append(assistant("partial"))
	echo.RemoveLast()

	if buf.String() != "partial\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if log.Len() != 1 {
		t.Errorf("expected partial reply removed, got %d messages", log.Len())
	}
	if echo.Finish() {
		t.Error("nothing should remain to finish after a removal")
	}
}

func TestEchoTranscript_NotifierBreaksLine(t *testing.T) {
	var out, errOut bytes.Buffer
	echo := NewEchoTranscript(chat.NewLog(), &out, "")
	n := echo.Notifier(ToastNotifier{W: &errOut})

	echo.Append(assistant("half"))
	n.Notify("Error", "Rate limit exceeded", chat.SeverityError)

	if out.String() != "half\n" {
		t.Errorf("expected reply line to be closed, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Error: Rate limit exceeded") {
		t.Errorf("expected toast, got %q", errOut.String())
	}
}

func TestToastNotifier_NoDescription(t *testing.T) {
	var buf bytes.Buffer
	ToastNotifier{W: &buf}.Notify("Saved", "", chat.SeverityInfo)
	if !strings.Contains(buf.String(), "Saved") || strings.Contains(buf.String(), ":") {
		t.Errorf("unexpected toast %q", buf.String())
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Plan\n\n- squats\n- lunges", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "squats") || !strings.Contains(out, "lunges") {
		t.Errorf("rendered output lost content: %q", out)
	}
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	sp := NewSpinnerTo(&buf, "Thinking...")
	sp.Stop()
	sp.Start()
	if !sp.Active() {
		t.Error("expected spinner to be active")
	}
	sp.Stop()
	sp.Stop()
	if sp.Active() {
		t.Error("expected spinner to be stopped")
	}
}

func TestSpinner_SuccessAndFail(t *testing.T) {
	var buf bytes.Buffer
	sp := NewSpinnerTo(&buf, "Planning your meals...")
	sp.Start()
	sp.Success("Advice ready")
	if sp.Active() {
		t.Error("expected Success to stop the spinner")
	}
	if !strings.Contains(buf.String(), "✓ Advice ready") {
		t.Errorf("missing success line: %q", buf.String())
	}

	buf.Reset()
	sp.Start()
	sp.Fail("Rate limit exceeded")
	if sp.Active() {
		t.Error("expected Fail to stop the spinner")
	}
	if !strings.Contains(buf.String(), "✗ Rate limit exceeded") {
		t.Errorf("missing failure line: %q", buf.String())
	}
}
