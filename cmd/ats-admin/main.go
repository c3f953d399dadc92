package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ats-client/internal/api"
	"ats-client/internal/cache"
	"ats-client/internal/common/config"
	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/logger"
	"ats-client/internal/common/observability"
	"ats-client/internal/common/transport"
	"ats-client/internal/controller"
	"ats-client/internal/filter"
	"ats-client/internal/models"
	"ats-client/internal/session"
)

func main() {
	commandFlag := flag.String("command", "list", "Command to run: login | logout | whoami | list | add | update | delete | export | change-password | users | user-add | user-update | user-delete | presets | preset-add | preset-update | preset-delete")
	configFlag := flag.String("config", "", "Path to a config file (default: configs/config.yaml)")

	searchFlag := flag.String("search", "", "Free-text search across name, email, position and status")
	roleFlag := flag.String("role", "", "Filter: exact position match")
	statusFlag := flag.String("status", "", "Filter: exact status match")
	appDateFlag := flag.String("application-date", "", "Filter: application date (yyyy-mm-dd)")
	intDateFlag := flag.String("interview-date", "", "Filter: interview date (yyyy-mm-dd)")

	idFlag := flag.String("id", "", "Applicant id (update/delete)")
	nameFlag := flag.String("name", "", "Full name")
	emailFlag := flag.String("email", "", "Email address")
	phoneFlag := flag.String("phone", "", "Phone number")
	positionFlag := flag.String("position", "", "Position applied for")
	companyFlag := flag.String("company", "", "Company")
	ctcFlag := flag.Int64("ctc", 0, "Annual CTC")
	locationFlag := flag.String("location", "", "Location")
	recordStatusFlag := flag.String("record-status", models.StatusApplied, "Applicant status")
	appliedFlag := flag.String("applied", "", "Application date (yyyy-mm-dd, default today)")
	interviewFlag := flag.String("interview", "", "Interview date (yyyy-mm-dd)")
	notesFlag := flag.String("notes", "", "Notes")
	resumeFlag := flag.String("resume", "", "Path to a resume file to attach")

	userFlag := flag.String("user", "", "User id (user-add/user-update/user-delete)")
	userRoleFlag := flag.String("user-role", "user", "Role for user-add/user-update: admin | user")
	presetTypeFlag := flag.String("preset-type", "company", "Preset kind: company | position")
	presetIDFlag := flag.String("preset-id", "", "Preset id (preset-update/preset-delete)")
	presetNameFlag := flag.String("preset-name", "", "Preset name (preset-add/preset-update)")

	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFlag != "" {
		cfg, err = config.LoadFromFile(*configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddress, nil); err != nil {
				zapLog.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	tr := transport.NewClient(cfg.API.BaseURL, config.GetDuration(cfg.API.Timeout))
	authClient := api.NewAuthClient(tr)
	recordsClient := api.NewRecordsClient(tr)
	presetsClient := api.NewPresetsClient(tr)
	usersClient := api.NewUsersClient(tr)

	var tokens session.TokenStore
	if cfg.TokenStore.Backend == "redis" {
		store := session.NewRedisTokenStore(cfg.TokenStore.Redis)
		defer store.Close()
		tokens = store
	} else {
		tokens = session.NewFileTokenStore(cfg.TokenStore.Path)
	}

	sess := session.NewStore(authClient, tr, tokens, session.NewClock(), log)
	recordCache := cache.New(recordsClient)
	ctrl := controller.New(sess, recordCache, recordsClient, authClient, obs, cfg.Export.Directory, log)

	ctx := context.Background()

	switch *commandFlag {
	case "login":
		runLogin(ctx, ctrl)
	case "logout":
		ctrl.Logout(ctx)
		fmt.Println("Logged out.")
	case "whoami":
		requireSession(ctx, ctrl)
		p := ctrl.Session().Principal()
		fmt.Printf("%s (%s)\n", p.ID, p.Role)
	case "list":
		requireSession(ctx, ctrl)
		criteria, err := parseCriteria(*searchFlag, *roleFlag, *statusFlag, *appDateFlag, *intDateFlag)
		if err != nil {
			fail(err)
		}
		ctrl.SetCriteria(criteria)
		printRecords(ctrl.Visible())
	case "add", "update":
		requireSession(ctx, ctrl)
		fields, err := buildFields(*nameFlag, *emailFlag, *phoneFlag, *positionFlag, *companyFlag, *locationFlag, *recordStatusFlag, *appliedFlag, *interviewFlag, *notesFlag, *ctcFlag)
		if err != nil {
			fail(err)
		}
		resume, err := loadResume(*resumeFlag)
		if err != nil {
			fail(err)
		}
		id := ""
		if *commandFlag == "update" {
			if *idFlag == "" {
				fail(clierrors.NewValidationError("id is required for update", nil))
			}
			id = *idFlag
		}
		record, err := ctrl.SubmitRecord(ctx, id, fields, resume)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Saved %s (%s)\n", record.FullName, record.ID)
	case "delete":
		requireSession(ctx, ctrl)
		if *idFlag == "" {
			fail(clierrors.NewValidationError("id is required for delete", nil))
		}
		adminPassword := promptSecret("Admin password: ")
		if err := ctrl.DeleteRecord(ctx, *idFlag, adminPassword); err != nil {
			fail(err)
		}
		fmt.Println("Deleted.")
	case "export":
		requireSession(ctx, ctrl)
		criteria, err := parseCriteria(*searchFlag, *roleFlag, *statusFlag, *appDateFlag, *intDateFlag)
		if err != nil {
			fail(err)
		}
		ctrl.SetCriteria(criteria)
		path, err := ctrl.Export(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Println("Export written to", path)
	case "users":
		requireSession(ctx, ctrl)
		users, err := usersClient.List(ctx)
		if err != nil {
			fail(err)
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\n", u.ID, u.Role)
		}
	case "presets":
		requireSession(ctx, ctrl)
		companies, err := presetsClient.Companies(ctx)
		if err != nil {
			fail(err)
		}
		positions, err := presetsClient.Positions(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Println("Companies:")
		for _, c := range companies {
			fmt.Println("  " + c.CompanyName)
		}
		fmt.Println("Positions:")
		for _, p := range positions {
			fmt.Println("  " + p.PositionName)
		}
	case "user-add":
		requireSession(ctx, ctrl)
		if *userFlag == "" {
			fail(clierrors.NewValidationError("user is required for user-add", nil))
		}
		password := promptSecret("Password for new user: ")
		if err := usersClient.Create(ctx, *userFlag, password, *userRoleFlag); err != nil {
			fail(err)
		}
		fmt.Printf("User %s created.\n", *userFlag)
	case "user-update":
		requireSession(ctx, ctrl)
		if *userFlag == "" {
			fail(clierrors.NewValidationError("user is required for user-update", nil))
		}
		password := promptSecret("New password (blank to keep current): ")
		if err := usersClient.Update(ctx, *userFlag, password, *userRoleFlag); err != nil {
			fail(err)
		}
		fmt.Printf("User %s updated.\n", *userFlag)
	case "user-delete":
		requireSession(ctx, ctrl)
		if *userFlag == "" {
			fail(clierrors.NewValidationError("user is required for user-delete", nil))
		}
		if err := usersClient.Delete(ctx, *userFlag); err != nil {
			fail(err)
		}
		fmt.Printf("User %s deleted.\n", *userFlag)
	case "preset-add":
		requireSession(ctx, ctrl)
		if *presetNameFlag == "" {
			fail(clierrors.NewValidationError("preset-name is required for preset-add", nil))
		}
		err := withPresetKind(*presetTypeFlag,
			func() error { return presetsClient.CreateCompany(ctx, *presetNameFlag) },
			func() error { return presetsClient.CreatePosition(ctx, *presetNameFlag) })
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s preset %q created.\n", *presetTypeFlag, *presetNameFlag)
	case "preset-update":
		requireSession(ctx, ctrl)
		if *presetIDFlag == "" || *presetNameFlag == "" {
			fail(clierrors.NewValidationError("preset-id and preset-name are required for preset-update", nil))
		}
		err := withPresetKind(*presetTypeFlag,
			func() error { return presetsClient.UpdateCompany(ctx, *presetIDFlag, *presetNameFlag) },
			func() error { return presetsClient.UpdatePosition(ctx, *presetIDFlag, *presetNameFlag) })
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s preset %s updated.\n", *presetTypeFlag, *presetIDFlag)
	case "preset-delete":
		requireSession(ctx, ctrl)
		if *presetIDFlag == "" {
			fail(clierrors.NewValidationError("preset-id is required for preset-delete", nil))
		}
		err := withPresetKind(*presetTypeFlag,
			func() error { return presetsClient.DeleteCompany(ctx, *presetIDFlag) },
			func() error { return presetsClient.DeletePosition(ctx, *presetIDFlag) })
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s preset %s deleted.\n", *presetTypeFlag, *presetIDFlag)
	case "change-password":
		requireSession(ctx, ctrl)
		current := promptSecret("Current password: ")
		next := promptSecret("New password: ")
		if err := ctrl.ChangePassword(ctx, current, next); err != nil {
			fail(err)
		}
		fmt.Println("Password changed.")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", *commandFlag)
		flag.Usage()
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, ctrl *controller.Controller) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("User ID: ")
	userID, _ := reader.ReadString('\n')
	userID = strings.TrimSpace(userID)
	password := promptSecret("Password: ")

	err := ctrl.Login(ctx, userID, password, func(status string) {
		fmt.Println(status)
	})
	if err != nil {
		fail(err)
	}
	p := ctrl.Session().Principal()
	fmt.Printf("Logged in as %s (%s)\n", p.ID, p.Role)
}

// requireSession restores a persisted session and loads the cache, or tells
// the operator to log in.
func requireSession(ctx context.Context, ctrl *controller.Controller) {
	ok, err := ctrl.Bootstrap(ctx)
	if err != nil {
		fail(err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "Not logged in. Run with -command login first.")
		os.Exit(1)
	}
}

// withPresetKind dispatches on the preset kind flag.
func withPresetKind(kind string, company, position func() error) error {
	switch kind {
	case "company":
		return company()
	case "position":
		return position()
	default:
		return clierrors.NewValidationError("preset-type must be company or position", nil)
	}
}

func parseCriteria(search, role, status, appDate, intDate string) (filter.Criteria, error) {
	criteria := filter.Criteria{
		SearchQuery: search,
		Role:        role,
		Status:      status,
	}
	if appDate != "" {
		t, err := time.Parse("2006-01-02", appDate)
		if err != nil {
			return criteria, clierrors.NewValidationError("application-date must be yyyy-mm-dd", nil)
		}
		criteria.ApplicationDate = t
	}
	if intDate != "" {
		t, err := time.Parse("2006-01-02", intDate)
		if err != nil {
			return criteria, clierrors.NewValidationError("interview-date must be yyyy-mm-dd", nil)
		}
		criteria.InterviewDate = t
	}
	return criteria, nil
}

func buildFields(name, email, phone, position, company, location, status, applied, interview, notes string, ctc int64) (models.ApplicantFields, error) {
	fields := models.ApplicantFields{
		FullName:  name,
		Email:     email,
		Phone:     phone,
		Position:  position,
		Company:   company,
		AnnualCTC: ctc,
		Location:  location,
		Status:    status,
		Notes:     notes,
	}

	if applied == "" {
		fields.DateOfApplication = time.Now()
	} else {
		t, err := time.Parse("2006-01-02", applied)
		if err != nil {
			return fields, clierrors.NewValidationError("applied must be yyyy-mm-dd", nil)
		}
		fields.DateOfApplication = t
	}

	if interview != "" {
		t, err := time.Parse("2006-01-02", interview)
		if err != nil {
			return fields, clierrors.NewValidationError("interview must be yyyy-mm-dd", nil)
		}
		fields.InterviewDate = &t
	}

	return fields, nil
}

func loadResume(path string) (*models.ResumeUpload, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, clierrors.NewValidationError(fmt.Sprintf("cannot read resume file %s", path), nil)
	}
	return &models.ResumeUpload{Filename: filepath.Base(path), Content: content}, nil
}

func printRecords(records []models.ApplicantRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPOSITION\tCOMPANY\tSTATUS\tAPPLIED\tINTERVIEW")
	for _, r := range records {
		interview := "-"
		if r.InterviewDate != nil {
			interview = r.InterviewDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.FullName, r.Position, r.Company, r.Status,
			r.DateOfApplication.Format("2006-01-02"), interview)
	}
	w.Flush()
	fmt.Printf("%d applicant(s)\n", len(records))
}

func promptSecret(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func fail(err error) {
	lines := controller.RenderError(err)
	if len(lines) == 0 {
		lines = []string{err.Error()}
	}
	for _, line := range lines {
		fmt.Fprintln(os.Stderr, line)
	}
	os.Exit(1)
}
