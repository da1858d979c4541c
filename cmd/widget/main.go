package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/config"
	"taste-fit/internal/domain"
	"taste-fit/internal/localstore"
	"taste-fit/internal/profile"
	"taste-fit/internal/score"
	"taste-fit/internal/session"
	"taste-fit/internal/survey"
	"taste-fit/internal/telemetry"
)

// Perfil sensorial de demo del producto configurado; en produccion viene del
// catalogo.
var demoSensory = map[domain.Attribute]int{
	domain.AttrAroma:      8,
	domain.AttrFlavor:     8,
	domain.AttrAftertaste: 7,
	domain.AttrAcidity:    8,
	domain.AttrSweetness:  7,
	domain.AttrMouthfeel:  6,
}

var demoTastingNotes = []string{"blueberry", "jasmine", "lemon zest"}

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	sessionID, err := session.GetOrCreateSessionID(store)
	if err != nil {
		log.Fatal(err)
	}

	client := api.NewClient(cfg.APIBaseURL, store, logger)
	profiles := profile.NewStore(client)
	sender := survey.NewHTTPResponseSender(client)
	emitter := telemetry.NewEmitter(client, logger)

	workflow := survey.NewWorkflow(logger, profiles, sender, emitter,
		sessionID, cfg.ProductID, cfg.VariantID, demoTastingNotes)
	display := score.NewDisplay(client, logger, sessionID)
	display.Attach(workflow, func() {
		display.Refresh(ctx, demoSensory)
	})

	emitter.Emit(ctx, domain.Event{
		EventName: telemetry.EventProductViewed,
		SessionID: sessionID,
		ProductID: cfg.ProductID,
		VariantID: cfg.VariantID,
	})

	workflow.Load(ctx)
	display.Refresh(ctx, demoSensory)

	fmt.Printf("=== Taste Fit: %s ===\n", cfg.ProductID)
	if workflow.Prefilled() {
		fmt.Println("Welcome back! We loaded your saved preferences.")
	}
	printScore(display)

	for {
		printForm(workflow)
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		choice := strings.ToLower(strings.TrimSpace(line))

		switch choice {
		case "q":
			return
		case "m":
			chooseMode(ctx, reader, workflow)
		case "r":
			rateAttributes(reader, workflow)
		case "o":
			rateOverallLiking(reader, workflow)
		case "t":
			toggleTags(reader, "What stood out?", workflow.StandoutTagOptions(),
				workflow.StandoutTags(), workflow.ToggleStandoutTag)
		case "f":
			toggleTags(reader, "Anything off?", domain.FitIssueTags,
				workflow.FitTags(), workflow.ToggleFitTag)
		case "n":
			fmt.Print("Notes (max 280 chars): ")
			text, _ := reader.ReadString('\n')
			workflow.SetNotes(strings.TrimSpace(text))
		case "c":
			askConsent(reader, workflow)
		case "s":
			if err := workflow.Submit(ctx); err != nil {
				fmt.Printf("Could not submit: %s\n", err)
			}
		default:
			fmt.Println("Unknown option.")
		}

		if workflow.State() == survey.StateSubmitted {
			fmt.Println("\nThanks! Your preferences are saved.")
			printScore(display)
			fmt.Print("Submit another response? [y/N]: ")
			again, _ := reader.ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(again), "y") {
				return
			}
			workflow.Reset()
		}
	}
}

func openStore(cfg *config.Config) (localstore.Store, error) {
	path := cfg.StatePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".taste-fit", "state.json")
	}
	return localstore.NewFileStore(path)
}

func printForm(w *survey.Workflow) {
	fmt.Println("\n--- How do you like your coffee? ---")
	fmt.Printf("Mode: %s\n", w.Mode())
	for _, attr := range domain.Attributes {
		if v, ok := w.Rating(attr); ok {
			fmt.Printf("  %-10s %d/9\n", attr, v)
		} else {
			fmt.Printf("  %-10s -\n", attr)
		}
	}
	if w.Mode() == domain.ModeTasted {
		if v, ok := w.OverallLiking(); ok {
			fmt.Printf("  overall    %d/9\n", v)
		} else {
			fmt.Println("  overall    -")
		}
		fmt.Printf("  standout tags: %s\n", strings.Join(w.StandoutTags(), ", "))
		fmt.Printf("  fit tags:      %s\n", strings.Join(w.FitTags(), ", "))
		if w.Notes() != "" {
			fmt.Printf("  notes: %s\n", w.Notes())
		}
	}
	if msg := w.ErrorMessage(); msg != "" {
		fmt.Printf("  !! %s\n", msg)
	}
	fmt.Println("[M]ode [R]ate [O]verall [T]ags [F]it tags [N]otes [C]onsent [S]ubmit [Q]uit")
}

func chooseMode(ctx context.Context, reader *bufio.Reader, w *survey.Workflow) {
	fmt.Println("[1] Just my preferences")
	fmt.Println("[2] I'm tasting this coffee now")
	fmt.Print("Select: ")
	line, _ := reader.ReadString('\n')
	switch strings.TrimSpace(line) {
	case "1":
		w.SetMode(ctx, domain.ModePreferenceOnly)
	case "2":
		w.SetMode(ctx, domain.ModeTasted)
	default:
		fmt.Println("Invalid selection.")
	}
}

func rateAttributes(reader *bufio.Reader, w *survey.Workflow) {
	for _, attr := range domain.Attributes {
		current := "-"
		if v, ok := w.Rating(attr); ok {
			current = strconv.Itoa(v)
		}
		fmt.Printf("%s [1-9, enter keeps %s]: ", attr, current)
		line, _ := reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		value, err := strconv.Atoi(text)
		if err != nil || !w.SetRating(attr, value) {
			fmt.Println("Please enter a number from 1 to 9.")
		}
	}
}

func rateOverallLiking(reader *bufio.Reader, w *survey.Workflow) {
	if w.Mode() != domain.ModeTasted {
		fmt.Println("Overall liking only applies when tasting.")
		return
	}
	fmt.Print("Overall, how much do you like it? [1-9]: ")
	line, _ := reader.ReadString('\n')
	value, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || !w.SetOverallLiking(value) {
		fmt.Println("Please enter a number from 1 to 9.")
	}
}

func toggleTags(reader *bufio.Reader, title string, options, selected []string, toggle func(string) bool) {
	chosen := make(map[string]bool, len(selected))
	for _, tag := range selected {
		chosen[tag] = true
	}
	fmt.Println(title)
	for i, tag := range options {
		marker := " "
		if chosen[tag] {
			marker = "x"
		}
		fmt.Printf("[%d] [%s] %s\n", i+1, marker, tag)
	}
	fmt.Print("Toggle number (enter to finish): ")
	line, _ := reader.ReadString('\n')
	text := strings.TrimSpace(line)
	if text == "" {
		return
	}
	idx, err := strconv.Atoi(text)
	if err != nil || idx < 1 || idx > len(options) {
		fmt.Println("Invalid selection.")
		return
	}
	if !toggle(options[idx-1]) {
		fmt.Println("Tag limit reached. Deselect one first.")
	}
}

func askConsent(reader *bufio.Reader, w *survey.Workflow) {
	analytics, marketing := w.Consent()
	fmt.Printf("Help us improve recommendations (analytics)? [Y/n, now %v]: ", analytics)
	line, _ := reader.ReadString('\n')
	if text := strings.TrimSpace(line); text != "" {
		analytics = strings.EqualFold(text, "y")
	}
	fmt.Printf("Hear about coffees picked for you (marketing)? [y/N, now %v]: ", marketing)
	line, _ = reader.ReadString('\n')
	if text := strings.TrimSpace(line); text != "" {
		marketing = strings.EqualFold(text, "y")
	}
	w.SetConsent(analytics, marketing)
}

func printScore(d *score.Display) {
	switch d.State() {
	case score.StateScored:
		result, _ := d.Result()
		fmt.Printf("\nYour taste fit: %d/100 - %s\n", result.Score, d.Message())
	case score.StateNoProfile:
		fmt.Println("\nTell us your taste to see how this coffee fits you.")
	}
}
