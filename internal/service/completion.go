package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/provider/textgen"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/log"
	"gorm.io/datatypes"
)

const (
	scriptSystemPrompt = "You write scripts for short talking-head marketing videos. " +
		"Answer with the spoken script only, no stage directions, no headings."
	copySystemPrompt = "You write marketing copy that accompanies a short video. " +
		`Answer with one JSON object: {"shortForm": string, "longForm": string, "social": {platform: string}}.`
)

var (
	DefaultPlatforms = []string{"linkedin", "x", "instagram"}

	// words spoken per duration bucket, at roughly 150 words per minute.
	scriptWords = map[string]int{
		policy.Duration30s:  75,
		policy.Duration1m:   150,
		policy.Duration1m30: 225,
	}
)

type CompletionService struct {
	jobWriter
	generator TextGenerator
	logger    *log.StructuredLogger
}

func NewCompletionService(st store.Store, publisher EventPublisher, generator TextGenerator) *CompletionService {
	return &CompletionService{
		jobWriter: jobWriter{store: st, publisher: publisher},
		generator: generator,
		logger:    log.NewDebugLogger("completion_service"),
	}
}

func (cs *CompletionService) ownedJob(ctx context.Context, user auth.User, jobID string) (*model.VideoJob, error) {
	job, err := cs.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != user.ID {
		return nil, NewErrAuthorization(user.ID, jobID)
	}
	return job, nil
}

// GenerateScript writes a script for the job. Drafts also get the script
// copied onto the job itself.
func (cs *CompletionService) GenerateScript(ctx context.Context, user auth.User, jobID string) (*model.CompletionRecord, error) {
	tracer := cs.logger.WithContext(ctx).Operation("generate_script").
		WithString("job_id", jobID).
		Build()

	job, err := cs.ownedJob(ctx, user, jobID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(job.Topic) == "" && strings.TrimSpace(job.Title) == "" {
		return nil, NewErrValidation("video job %s needs a topic or a title to write a script", job.ID)
	}

	completion, err := cs.generator.Generate(ctx, textgen.Prompt{
		System:      scriptSystemPrompt,
		User:        scriptPrompt(job),
		Temperature: 0.7,
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	record, err := cs.store.Completion().Upsert(ctx, model.CompletionRecord{JobID: job.ID, Script: completion.Text})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	if job.Status == model.StatusDraft {
		job.Script = completion.Text
		updated, err := cs.save(ctx, job)
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		cs.announce(ctx, model.StatusDraft, updated)
	}

	tracer.Success().WithString("model", completion.Model).WithInt("length", len(completion.Text)).Log()
	return record, nil
}

type generatedCopy struct {
	ShortForm string            `json:"shortForm"`
	LongForm  string            `json:"longForm"`
	Social    map[string]string `json:"social"`
}

// GenerateCopy writes the short, long and social copies of the job.
// Existing copies are only replaced by non-empty ones.
func (cs *CompletionService) GenerateCopy(ctx context.Context, user auth.User, jobID string, platforms []string) (*model.CompletionRecord, error) {
	tracer := cs.logger.WithContext(ctx).Operation("generate_copy").
		WithString("job_id", jobID).
		WithParam("platforms", platforms).
		Build()

	job, err := cs.ownedJob(ctx, user, jobID)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}

	completion, err := cs.generator.Generate(ctx, textgen.Prompt{
		System:      copySystemPrompt,
		User:        copyPrompt(job, platforms),
		JSON:        true,
		Temperature: 0.7,
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	var out generatedCopy
	if err := textgen.DecodeJSON(completion.Text, &out); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	in := model.CompletionRecord{JobID: job.ID, ShortForm: out.ShortForm, LongForm: out.LongForm}
	if len(out.Social) > 0 {
		in.Social = datatypes.JSONMap{}
		for platform, text := range out.Social {
			in.Social[strings.ToLower(platform)] = text
		}
	}

	record, err := cs.store.Completion().Upsert(ctx, in)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithInt("social", len(out.Social)).Log()
	return record, nil
}

func (cs *CompletionService) Get(ctx context.Context, user auth.User, jobID string) (*model.CompletionRecord, error) {
	if _, err := cs.ownedJob(ctx, user, jobID); err != nil {
		return nil, err
	}

	record, err := cs.store.Completion().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCompletionNotFound(jobID)
		}
		return nil, err
	}
	return record, nil
}

func scriptPrompt(job *model.VideoJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a video script of about %d words.\n", wordsFor(job.Duration))
	writeField(&b, "Title", job.Title)
	writeField(&b, "Topic", job.Topic)
	writeField(&b, "Description", job.Description)
	writeField(&b, "Tone", job.Tone)
	writeField(&b, "Call to action", job.CallToAction)
	return b.String()
}

func copyPrompt(job *model.VideoJob, platforms []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write copy for these social platforms: %s.\n", strings.Join(platforms, ", "))
	writeField(&b, "Title", job.Title)
	writeField(&b, "Topic", job.Topic)
	writeField(&b, "Tone", job.Tone)
	writeField(&b, "Call to action", job.CallToAction)
	writeField(&b, "Script", job.Script)
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", name, value)
	}
}

func wordsFor(duration string) int {
	if n, ok := scriptWords[policy.NormalizeDuration(duration)]; ok {
		return n
	}
	return scriptWords[policy.Duration30s]
}
