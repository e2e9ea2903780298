package scriptgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vunguyen2308/manhwa-reel/internal/images"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
)

// How many trailing messages to keep beyond the seed exchange.
const defaultMaxTail = 20

const systemInstruction = "CRITICAL REQUIREMENT: YOU MUST ALWAYS OUTPUT EXACTLY %d LINES, EACH ENDING WITH *"

// Generator turns chapter image folders into narration scripts, one
// asterisk-terminated line per image, by feeding image batches to Gemini.
type Generator struct {
	apiKeys       []string
	currentKey    int
	model         string
	batchSize     int
	linesPerBatch int
	pacing        time.Duration
	logger        logger.Logger
}

// New creates a Generator that rotates through the supplied Gemini API keys.
func New(apiKeys []string, model string, batchSize, linesPerBatch int, pacing time.Duration, log logger.Logger) *Generator {
	return &Generator{
		apiKeys:       apiKeys,
		model:         model,
		batchSize:     batchSize,
		linesPerBatch: linesPerBatch,
		pacing:        pacing,
		logger:        log,
	}
}

// GenerateAll walks the chapter folders in order and writes one narration
// script per chapter into scriptsOut. The conversation carries across
// chapters so the narration stays consistent with earlier events.
func (g *Generator) GenerateAll(ctx context.Context, chaptersDir, title, scriptsOut string) error {
	if len(g.apiKeys) == 0 {
		return fmt.Errorf("no Gemini API keys configured")
	}
	if err := os.MkdirAll(scriptsOut, 0755); err != nil {
		return fmt.Errorf("create scripts dir: %w", err)
	}

	chapters, err := chapterDirs(chaptersDir)
	if err != nil {
		return err
	}

	conv := NewConversation(seedMessages(title), defaultMaxTail)

	for _, chapter := range chapters {
		g.logger.Info(ctx, "Generating script for %s", chapter)
		script, err := g.generateChapter(ctx, filepath.Join(chaptersDir, chapter), conv)
		if err != nil {
			return fmt.Errorf("generate %s: %w", chapter, err)
		}

		scriptPath := filepath.Join(scriptsOut, chapter+".txt")
		if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
		g.logger.Info(ctx, "Saved script for %s -> %s", chapter, scriptPath)
	}

	return nil
}

func (g *Generator) generateChapter(ctx context.Context, chapterPath string, conv *Conversation) (string, error) {
	assets, err := images.Discover(chapterPath)
	if err != nil {
		return "", err
	}
	if len(assets) == 0 {
		return "", fmt.Errorf("no ordered images in %s", chapterPath)
	}

	var responses []string
	for start := 0; start < len(assets); start += g.batchSize {
		end := start + g.batchSize
		if end > len(assets) {
			end = len(assets)
		}

		parts, err := imageParts(assets[start:end])
		if err != nil {
			return "", err
		}
		userMsg := genai.NewContentFromParts(parts, genai.RoleUser)

		if g.pacing > 0 {
			select {
			case <-time.After(g.pacing):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, err := g.callGemini(ctx, append(conv.Messages(), userMsg), end-start)
		if err != nil {
			return "", err
		}
		if err := validateResponse(reply, end-start); err != nil {
			return "", err
		}

		conv.Append(userMsg, genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromText(reply)}, genai.RoleModel))
		responses = append(responses, reply)
	}

	return strings.Join(responses, "\n\n"), nil
}

// callGemini sends the conversation and returns the reply text, rotating
// API keys on 429 / quota errors.
func (g *Generator) callGemini(ctx context.Context, contents []*genai.Content, expectLines int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromText(fmt.Sprintf(systemInstruction, expectLines))},
			genai.RoleUser),
	}

	attempts := len(g.apiKeys)
	var lastErr error

	for range attempts {
		key := g.apiKeys[g.currentKey]

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", g.currentKey+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *Generator) rotateKey() {
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}

// validateResponse checks the reply carries exactly one asterisk-terminated
// narration line per image in the batch.
func validateResponse(reply string, expected int) error {
	count := 0
	for _, seg := range strings.Split(reply, "*") {
		if strings.TrimSpace(seg) != "" {
			count++
		}
	}
	if count != expected {
		return fmt.Errorf("expected %d narration lines, got %d", expected, count)
	}
	return nil
}

func seedMessages(title string) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(title)}, genai.RoleUser),
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(
			"Understood. I will narrate each page of " + title + " in order, one dramatic line per panel batch.")},
			genai.RoleModel),
	}
}

func imageParts(assets []images.Asset) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(assets))
	for _, a := range assets {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType(a.Path)))
	}
	return parts, nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// chapterDirs lists chapter subfolders sorted by the number embedded in
// their names, so chapter10 follows chapter9.
func chapterDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read chapters dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool {
		return chapterNumber(names[i]) < chapterNumber(names[j])
	})
	return names, nil
}

func chapterNumber(name string) int {
	n := 0
	found := false
	for _, r := range name {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			found = true
		} else if found {
			break
		}
	}
	if !found {
		return 0
	}
	return n
}
