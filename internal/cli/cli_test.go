package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/abelzeko/soilism/internal/config"
	"github.com/abelzeko/soilism/internal/integration"
	"github.com/abelzeko/soilism/internal/repository"
	"github.com/abelzeko/soilism/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type nopSender struct{}

func (nopSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, nil
}

func TestBuildNotifiers(t *testing.T) {
	cfg := config.Default()

	notifier, reporter := buildNotifiers(cfg, nil)
	if _, ok := notifier.(integration.LogNotifier); !ok {
		t.Errorf("nothing configured: got %T, want LogNotifier", notifier)
	}
	if reporter != nil {
		t.Errorf("nothing configured: reporter should be nil, got %T", reporter)
	}

	cfg.EmailJSServiceID, cfg.EmailJSTemplateID, cfg.EmailJSPublicKey = "s", "t", "k"
	cfg.TelegramChatID = 7
	notifier, reporter = buildNotifiers(cfg, nopSender{})
	multi, ok := notifier.(*integration.MultiNotifier)
	if !ok || multi.Len() != 2 {
		t.Errorf("email and telegram: got %T %+v", notifier, notifier)
	}
	if _, ok := reporter.(*integration.TelegramNotifier); !ok {
		t.Errorf("reporter should be the Telegram notifier, got %T", reporter)
	}

	notifier, reporter = buildNotifiers(cfg, nil)
	if multi, ok := notifier.(*integration.MultiNotifier); !ok || multi.Len() != 1 || reporter != nil {
		t.Errorf("without a bot only email should remain: %T %v", notifier, reporter)
	}
}

func TestNewRepository(t *testing.T) {
	cfg := config.Default()
	repo, err := newRepository(cfg)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := repo.(*repository.MemoryPlantRepository); !ok {
		t.Errorf("default store: got %T", repo)
	}

	cfg.StoreDriver = config.StoreSQLite
	repo, err = newRepository(cfg)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*repository.SQLitePlantRepository); !ok {
		t.Errorf("sqlite store: got %T", repo)
	}

	cfg.StoreDriver = "etcd"
	if _, err := newRepository(cfg); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestScheduleReports(t *testing.T) {
	uc := usecases.NewPlantUseCase(repository.NewMemoryPlantRepository(), nil, nil)

	if c, err := scheduleReports(context.Background(), "", uc); c != nil || err != nil {
		t.Errorf("empty schedule: got %v, %v", c, err)
	}
	if _, err := scheduleReports(context.Background(), "every now and then", uc); err == nil {
		t.Error("expected an error for a bad schedule")
	}
	c, err := scheduleReports(context.Background(), "*/5 * * * *", uc)
	if err != nil || c == nil {
		t.Fatalf("valid schedule: %v", err)
	}
	if n := len(c.Entries()); n != 1 {
		t.Errorf("expected one cron entry, got %d", n)
	}
}

func TestProbePrintsSamples(t *testing.T) {
	probeSettleDelay = 0
	defer func() { probeSettleDelay = integration.DefaultSettleDelay }()

	open := func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("8,20,40\ngarbage\n40,21.5,55\n")), nil
	}

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	probe(ctx, open, &out, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if !strings.Contains(lines[0], "moisture=8%") || !strings.Contains(lines[0], "dry for [Sandy Clay Loamy]") {
		t.Errorf("first line %q", lines[0])
	}
	if strings.Contains(lines[1], "dry for") {
		t.Errorf("40%% is not dry for any soil: %q", lines[1])
	}
}
