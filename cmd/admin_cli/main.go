package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"taste-fit/internal/admin"
	"taste-fit/internal/api"
	"taste-fit/internal/config"
	"taste-fit/internal/domain"
	"taste-fit/internal/localstore"
)

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

	// El dashboard guarda credenciales solo en memoria; cada corrida pide login.
	store := localstore.NewMemoryStore()
	client := admin.NewClient(api.NewClient(cfg.APIBaseURL, store, logger), store, logger)

	fmt.Println("=== Taste Fit Admin ===")
	if err := loginFlow(ctx, reader, client); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Logged in as %s\n", client.Role())

	for {
		fmt.Println("\n[P]roducts [S]ummary [F]unnel [G] Segments [E]xport CSV [D]elete data [Q]uit")
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q":
			client.Logout()
			return
		case "p":
			listProducts(ctx, reader, client)
		case "s":
			showSummary(ctx, reader, client)
		case "f":
			showFunnel(ctx, client)
		case "g":
			showSegments(ctx, client)
		case "e":
			exportCSV(ctx, reader, client)
		case "d":
			deleteData(ctx, reader, client)
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func loginFlow(ctx context.Context, reader *bufio.Reader, client *admin.Client) error {
	for attempts := 0; attempts < 3; attempts++ {
		fmt.Print("Email: ")
		email, _ := reader.ReadString('\n')
		fmt.Print("Password: ")
		password, _ := reader.ReadString('\n')

		_, err := client.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
		if err == nil {
			return nil
		}
		fmt.Printf("Login failed: %s\n", err)
	}
	return fmt.Errorf("too many failed login attempts")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func listProducts(ctx context.Context, reader *bufio.Reader, client *admin.Client) {
	search := prompt(reader, "Search (enter for all): ")
	products, err := client.ListProducts(ctx, search)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	if len(products) == 0 {
		fmt.Println("No responses yet.")
		return
	}
	for _, p := range products {
		fmt.Printf("%-30s %4d responses  last %s  modes %s\n",
			p.ProductID, p.ResponseCount, p.LastResponse, strings.Join(p.Modes, "/"))
	}
}

func showSummary(ctx context.Context, reader *bufio.Reader, client *admin.Client) {
	productID := prompt(reader, "Product id (enter for all): ")
	summary, err := client.ProductSummary(ctx, productID, "", "")
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	fmt.Printf("Responses: %d  (with notes: %d)\n", summary.Count, summary.NotesCount)
	for mode, count := range summary.ModeBreakdown {
		fmt.Printf("  %s: %d\n", mode, count)
	}
	fields := make([]string, 0, len(summary.Averages))
	for field := range summary.Averages {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Printf("  avg %-22s %.2f\n", field, summary.Averages[field])
	}
	printTagCounts("Standout tags", summary.StandoutTags)
	printTagCounts("Fit tags", summary.FitTags)
}

func printTagCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Println(title + ":")
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	for _, tag := range tags {
		fmt.Printf("  %-20s %d\n", tag, counts[tag])
	}
}

func showFunnel(ctx context.Context, client *admin.Client) {
	funnel, err := client.Funnel(ctx, "", "")
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	for _, name := range []string{
		"product_viewed", "affective_form_viewed",
		"affective_form_opened", "affective_form_submitted",
	} {
		fmt.Printf("  %-26s %d\n", name, funnel[name])
	}
}

func showSegments(ctx context.Context, client *admin.Client) {
	segments, err := client.Segments(ctx, "", "")
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	fmt.Printf("Profiles: %d\n", segments.TotalProfiles)
	for _, attr := range domain.Attributes {
		bands := segments.Segments[string(attr)]
		fmt.Printf("  %-10s low %d  mid %d  high %d\n", attr, bands.Low, bands.Mid, bands.High)
	}
}

func exportCSV(ctx context.Context, reader *bufio.Reader, client *admin.Client) {
	productID := prompt(reader, "Product id (enter for all): ")
	path := prompt(reader, "Output file [responses.csv]: ")
	if path == "" {
		path = "responses.csv"
	}
	data, err := client.ExportCSV(ctx, productID, "", "")
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Printf("Error writing file: %s\n", err)
		return
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), path)
}

func deleteData(ctx context.Context, reader *bufio.Reader, client *admin.Client) {
	sessionID := prompt(reader, "Session id (enter to skip): ")
	consumerID := ""
	if sessionID == "" {
		consumerID = prompt(reader, "Consumer id: ")
	}
	if sessionID == "" && consumerID == "" {
		fmt.Println("Nothing to delete.")
		return
	}
	if !strings.EqualFold(prompt(reader, "This permanently deletes all their data. Continue? [y/N]: "), "y") {
		return
	}
	result, err := client.DeleteData(ctx, sessionID, consumerID)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	fmt.Printf("Deleted %d profiles, %d responses, %d events\n",
		result.Profiles, result.Responses, result.Events)
}
