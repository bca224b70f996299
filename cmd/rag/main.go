package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ragindex/internal/config"
	"ragindex/internal/domain"
	"ragindex/internal/service"
	"ragindex/internal/summarizer"
	"ragindex/internal/tui"
	"ragindex/internal/vectorstore"
	"ragindex/internal/vectorstore/bolt"
	"ragindex/internal/vectorstore/file"
)

func main() {
	_ = godotenv.Load()

	var o options
	flag.StringVar(&o.cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/rag/config.yaml if not provided)")
	flag.StringVar(&o.name, "index", "", "Snapshot name to save or load (defaults to store.name from config)")
	flag.BoolVar(&o.save, "save", false, "Persist the index after ingesting documents")
	flag.StringVar(&o.query, "query", "", "Run a single query, print the results and exit")
	flag.IntVar(&o.topK, "top", 0, "Number of results to return (defaults to search.top_k from config)")
	flag.Parse()
	o.inputs = flag.Args()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(o, logger); err != nil {
		logger.WithField("component", "main").Fatal(err)
	}
}

type options struct {
	cfgPath string
	name    string
	save    bool
	query   string
	topK    int
	inputs  []string
}

// run wires and runs the application. Resources opened here are released
// before it returns, on success and on error.
func run(o options, logger *logrus.Logger) error {
	log := logger.WithField("component", "main")

	var cfg *config.AppConfig
	var err error
	if o.cfgPath == "" {
		cfg, o.cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(o.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", o.cfgPath, err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if o.name == "" {
		o.name = cfg.Store.Name
	}
	if o.topK <= 0 {
		o.topK = cfg.Search.TopK
	}

	index, err := vectorstore.New(vectorstore.Config{
		ChunkSize:   cfg.Chunker.ChunkSize,
		Overlap:     cfg.Chunker.Overlap,
		MaxFeatures: cfg.Model.MaxFeatures,
	}, vectorstore.WithLogger(logger.WithField("component", "vectorstore")))
	if err != nil {
		return fmt.Errorf("index init failed: %w", err)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		return fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	var st vectorstore.Storage
	switch cfg.Store.Type {
	case "file":
		st, err = file.NewStorage(cfg.Store.Path, logger.WithField("component", "file_storage"))
	case "bolt":
		st, err = bolt.NewStorage(cfg.Store.Path, logger.WithField("component", "bolt_storage"))
	default:
		return fmt.Errorf("unknown vector store: %s", cfg.Store.Type)
	}
	if err != nil {
		return fmt.Errorf("snapshot store init failed: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warnf("closing snapshot store: %v", err)
		}
	}()

	svc := service.NewRAGService(index, st, sum, cfg.Summarizer.MaxSentences, logger.WithField("component", "rag_service"))

	var summary string
	if len(o.inputs) > 0 {
		summary, err = svc.IngestDocuments(o.inputs)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		if o.save {
			if err := svc.Save(o.name); err != nil {
				return fmt.Errorf("save failed: %w", err)
			}
		}
	} else {
		if err := svc.LoadSnapshot(o.name); err != nil {
			fmt.Fprintln(os.Stderr, "Usage: rag [--config=config.yaml] [--index=name] [--save] [--query=q] [--top=k] [docs_dir | file.txt ...]")
			return fmt.Errorf("no documents given and no snapshot to load: %w", err)
		}
		docs, chunks, dim := svc.Stats()
		summary = fmt.Sprintf("Loaded index %q: %d documents, %d chunks, %d dimensions.", o.name, docs, chunks, dim)
	}

	if o.query != "" {
		results, err := svc.Query(o.query, o.topK)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		printResults(o.query, results)
		return nil
	}

	m := tui.New(svc, summary, o.topK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return err
	}
	return nil
}

func printResults(query string, results []domain.SearchResult) {
	fmt.Printf("Question: %s\n", query)
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		text := r.Chunk.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("\nResult %d (Score: %.4f) [%s #%d]\n%s\n", i+1, r.Score, r.Metadata.DocumentName, r.Metadata.ChunkIndex, text)
	}
}
