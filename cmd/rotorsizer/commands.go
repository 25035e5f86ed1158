package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/piwi3910/RotorSizer/internal/engine"
	"github.com/piwi3910/RotorSizer/internal/export"
	"github.com/piwi3910/RotorSizer/internal/importer"
	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/observability"
	"github.com/piwi3910/RotorSizer/internal/project"
	"github.com/piwi3910/RotorSizer/internal/study"
	"github.com/piwi3910/RotorSizer/internal/units"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("rotorsizer "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return errUsage
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// evalSettings resolves evaluator settings from the configuration and the
// frame tables file.
func (a *app) evalSettings() (model.EvalSettings, error) {
	tables, err := project.LoadFrameTables(a.cfg.Eval.TablesFile)
	if err != nil {
		return model.EvalSettings{}, err
	}
	settings := a.cfg.EvalSettings(model.DefaultEvalSettings())
	settings.Tables = tables
	return settings, nil
}

// runner builds a study runner with tracing installed. The returned
// function flushes spans and writes the metrics file.
func (a *app) runner(ctx context.Context) (*study.Runner, func(), error) {
	settings, err := a.evalSettings()
	if err != nil {
		return nil, nil, err
	}
	metrics, err := observability.NewStudyCollector(nil)
	if err != nil {
		return nil, nil, err
	}
	shutdown, err := observability.InitTracing(ctx, a.cfg.TracingConfig(), a.log)
	if err != nil {
		return nil, nil, err
	}
	done := func() {
		observability.ShutdownWithTimeout(context.Background(), shutdown, a.log)
		if a.cfg.Metrics.File == "" {
			return
		}
		if err := writeMetrics(a.cfg.Metrics.File, metrics); err != nil {
			a.log.Warn(ctx, "failed to write metrics", logging.Err(err))
		}
	}
	return study.NewRunner(settings, a.log, metrics), done, nil
}

func writeMetrics(path string, metrics *observability.StudyCollector) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := metrics.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdInit(ctx context.Context, a *app, args []string) error {
	fs := a.flags("init")
	force := fs.Bool("force", false, "overwrite an existing catalog and example study")
	if err := parse(fs, args); err != nil {
		return err
	}

	catPath := a.catalogPath()
	if exists(catPath) && !*force {
		a.log.Info(ctx, "keeping existing catalog", logging.String("path", catPath))
	} else if err := project.SaveCatalog(catPath, model.DefaultCatalog()); err != nil {
		return err
	}

	appCfg, err := project.LoadAppConfig(a.appConfigPath())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", a.appConfigPath(), err)
	}
	if err := project.SaveAppConfig(a.appConfigPath(), appCfg); err != nil {
		return err
	}

	s := model.NewStudy("Example")
	appCfg.ApplyToStudy(&s)
	s.Description = "Plate-frame quadrotor carrying an action camera"
	s.Printer = "Prusa MK4"
	s.Sensors = []string{"Action Camera"}
	s.PrintMaterials = []string{"PLA", "PETG"}
	studyPath := project.StudyPath(a.studiesDir(), s.Name)
	if exists(studyPath) && !*force {
		a.log.Info(ctx, "keeping existing study", logging.String("path", studyPath))
	} else if err := project.SaveStudy(studyPath, s); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "catalog: %s\nstudy:   %s\n", catPath, studyPath)
	return nil
}

func cmdRun(ctx context.Context, a *app, args []string) error {
	fs := a.flags("run")
	studyRef := fs.String("study", "", "study file or saved study name")
	backend := fs.String("store", "file", "catalog store: file or redis")
	sortBy := fs.String("sort", string(engine.SortScore), "ranking order: "+joinKeys(engine.SortKeys()))
	outDir := fs.String("out", a.cfg.OutputDir, "output directory")
	formats := fs.String("formats", "json", "outputs to write: json, pdf, xlsx, labels, dxf")
	top := fs.Int("top", 10, "ranked candidates to print")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, studyPath, err := a.resolveStudy(*studyRef)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog(ctx, *backend)
	if err != nil {
		return err
	}
	runner, done, err := a.runner(ctx)
	if err != nil {
		return err
	}
	defer done()
	runner.SortBy = engine.SortKey(*sortBy)

	res, err := runner.Run(ctx, s, &cat)
	if err != nil {
		return err
	}
	printResults(a, res, *top)

	dir := filepath.Join(*outDir, strings.TrimSuffix(filepath.Base(project.StudyPath("", s.Name)), project.StudyExt)+"-"+res.RunID)
	if err := writeOutputs(ctx, a, dir, *formats, res); err != nil {
		return err
	}

	appCfg, err := project.LoadAppConfig(a.appConfigPath())
	if err == nil {
		appCfg.AddRecent(studyPath)
		err = project.SaveAppConfig(a.appConfigPath(), appCfg)
	}
	if err != nil {
		a.log.Warn(ctx, "failed to update recent studies", logging.Err(err))
	}
	return nil
}

func joinKeys(keys []engine.SortKey) string {
	s := make([]string, len(keys))
	for i, k := range keys {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}

// valueIn converts q for display, printing zero when it cannot.
func valueIn(q units.Quantity, u units.Unit) float64 {
	v, err := q.In(u)
	if err != nil {
		return 0
	}
	return v
}

func printResults(a *app, res project.Results, top int) {
	fmt.Fprintln(a.stdout, res.Summary.Headline())
	if res.Summary.Feasible > 0 {
		fmt.Fprintln(a.stdout)
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tCANDIDATE\tSCORE\tPARETO\tWEIGHT (N)\tPAYLOAD (N)\tENDURANCE (min)\tSIZE (m)\tBUILD (hr)")
		for i, c := range model.FeasibleOnly(res.Candidates) {
			if i >= top {
				break
			}
			p := c.Performance
			fmt.Fprintf(tw, "%d\t%s\t%.3f\t%t\t%.2f\t%.2f\t%.1f\t%.3f\t%.1f\n",
				i+1, c.Name, c.Score, c.Pareto,
				valueIn(p.Weight, units.Newton), valueIn(p.Payload, units.Newton), valueIn(p.Endurance, units.Minute),
				valueIn(p.Size, units.Meter), valueIn(p.BuildTime, units.Hour))
		}
		tw.Flush()
	}
	if len(res.Summary.Failures) > 0 {
		fmt.Fprintln(a.stdout)
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REJECTION\tCOUNT\tMEAN\tLIMIT")
		for _, f := range res.Summary.Failures {
			limit := "-"
			if f.Threshold != nil {
				limit = f.Threshold.String()
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.Reason, f.Count, f.Mean.String(), limit)
		}
		tw.Flush()
	}
}

func writeOutputs(ctx context.Context, a *app, dir, formats string, res project.Results) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, f := range strings.Split(formats, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		var (
			path string
			err  error
		)
		switch f {
		case "":
			continue
		case "json":
			path = filepath.Join(dir, "results.json")
			err = project.SaveResults(path, res)
		case "pdf":
			path = filepath.Join(dir, "report.pdf")
			err = export.ExportPDF(path, res)
		case "xlsx":
			path = filepath.Join(dir, "results.xlsx")
			err = export.ExportResultsXLSX(path, res)
		case "labels", "dxf":
			if res.Summary.Feasible == 0 {
				a.log.Warn(ctx, "nothing feasible, skipping output", logging.String("format", f))
				continue
			}
			if f == "labels" {
				path = filepath.Join(dir, "labels.pdf")
				err = export.ExportLabels(path, res.Candidates)
			} else {
				best := res.Candidates[0]
				path = filepath.Join(dir, best.ID+".dxf")
				err = export.ExportPlanformDXF(path, best)
			}
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", f, err)
		}
		a.log.Info(ctx, "output written", logging.String("format", f), logging.String("path", path))
	}
	return nil
}

func cmdCompare(ctx context.Context, a *app, args []string) error {
	fs := a.flags("compare")
	studyRef := fs.String("study", "", "study file or saved study name")
	backend := fs.String("store", "file", "catalog store: file or redis")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, _, err := a.resolveStudy(*studyRef)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog(ctx, *backend)
	if err != nil {
		return err
	}
	runner, done, err := a.runner(ctx)
	if err != nil {
		return err
	}
	defer done()

	results, err := runner.Compare(ctx, s, &cat)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tFEASIBLE\tPARETO\tBEST\tTOP FAILURE")
	for _, r := range results {
		best, fail := "-", "-"
		if r.Best != nil {
			best = r.Best.Name
		}
		if len(r.Summary.Failures) > 0 {
			fail = fmt.Sprintf("%s (%d)", r.Summary.Failures[0].Reason, r.Summary.Failures[0].Count)
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%s\t%s\n", r.Scenario.Name, r.Summary.Feasible, r.Summary.Total, r.Pareto, best, fail)
	}
	return tw.Flush()
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("import")
	file := fs.String("file", "", "CSV, Excel (.xlsx) or catalog JSON file")
	kindName := fs.String("kind", "", "component family of a CSV file, inferred from the file name when empty")
	backend := fs.String("store", "file", "catalog store: file or redis")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("no file given, use -file")
	}

	st, err := a.openStore(*backend)
	if err != nil {
		return err
	}
	defer st.Close()
	cat, err := st.Load(ctx)
	if err != nil {
		return err
	}
	log := a.log.With(logging.String("file", *file))

	var added, read int
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".json":
		cat, added, err = project.ImportCatalog(*file, cat)
		if err != nil {
			return err
		}
		read = added
	default:
		var res importer.ImportResult
		if ext := strings.ToLower(filepath.Ext(*file)); ext == ".xlsx" || ext == ".xlsm" {
			res = importer.ImportExcel(*file, &cat)
		} else {
			var kind model.Kind
			if *kindName != "" {
				k, ok := importer.KindFromName(*kindName)
				if !ok {
					return fmt.Errorf("unknown component kind %q", *kindName)
				}
				kind = k
			}
			res = importer.ImportCSV(*file, kind, &cat)
		}
		for _, w := range res.Warnings {
			log.Warn(ctx, w)
		}
		for _, e := range res.Errors {
			log.Error(ctx, e)
		}
		if res.Count() == 0 {
			if len(res.Errors) > 0 {
				return fmt.Errorf("import failed with %d errors", len(res.Errors))
			}
			return errors.New("no components found")
		}
		read = res.Count()
		added = cat.Merge(res.Catalog)
	}

	if added > 0 {
		if err := st.Save(ctx, cat); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.stdout, "imported %d of %d components\n", added, read)
	return nil
}

func cmdExportCatalog(ctx context.Context, a *app, args []string) error {
	fs := a.flags("export-catalog")
	format := fs.String("format", "xlsx", "json, xlsx or csv")
	out := fs.String("out", "", "output file, or directory for csv")
	backend := fs.String("store", "file", "catalog store: file or redis")
	if err := parse(fs, args); err != nil {
		return err
	}
	cat, err := a.loadCatalog(ctx, *backend)
	if err != nil {
		return err
	}

	path := *out
	switch *format {
	case "json":
		if path == "" {
			path = filepath.Join(a.cfg.OutputDir, "catalog.json")
		}
		err = project.SaveCatalog(path, cat)
	case "xlsx":
		if path == "" {
			path = filepath.Join(a.cfg.OutputDir, "catalog.xlsx")
		}
		err = export.ExportCatalogXLSX(path, cat)
	case "csv":
		if path == "" {
			path = filepath.Join(a.cfg.OutputDir, "catalog")
		}
		var files []string
		files, err = export.ExportCatalogCSV(path, cat)
		for _, f := range files {
			fmt.Fprintln(a.stdout, f)
		}
		if err == nil {
			return nil
		}
	default:
		return fmt.Errorf("unknown format %q, want json, xlsx or csv", *format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

// copyCatalog loads the catalog from one store and replaces the other.
func copyCatalog(ctx context.Context, a *app, from, to string) error {
	cat, err := a.loadCatalog(ctx, from)
	if err != nil {
		return err
	}
	dst, err := a.openStore(to)
	if err != nil {
		return err
	}
	defer dst.Close()
	if err := dst.Save(ctx, cat); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "copied %d components from %s to %s\n", cat.Len(), from, to)
	return nil
}

func cmdPushCatalog(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("push-catalog"), args); err != nil {
		return err
	}
	return copyCatalog(ctx, a, "file", "redis")
}

func cmdPullCatalog(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("pull-catalog"), args); err != nil {
		return err
	}
	return copyCatalog(ctx, a, "redis", "file")
}

func cmdBackup(ctx context.Context, a *app, args []string) error {
	fs := a.flags("backup")
	out := fs.String("out", filepath.Join(a.cfg.OutputDir, "rotorsizer-backup.json"), "backup file")
	if err := parse(fs, args); err != nil {
		return err
	}

	appCfg, err := project.LoadAppConfig(a.appConfigPath())
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog(ctx, "file")
	if err != nil {
		return err
	}
	paths, err := project.ListStudies(a.studiesDir())
	if err != nil {
		return err
	}
	studies := make([]model.Study, 0, len(paths))
	for _, p := range paths {
		s, err := project.LoadStudy(p)
		if err != nil {
			a.log.Warn(ctx, "skipping unreadable study", logging.String("path", p), logging.Err(err))
			continue
		}
		studies = append(studies, s)
	}

	if err := project.ExportAllData(*out, appCfg, cat, studies); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %d components, %d studies\n", *out, cat.Len(), len(studies))
	return nil
}

func cmdRestore(ctx context.Context, a *app, args []string) error {
	fs := a.flags("restore")
	in := fs.String("in", "", "backup file written by the backup command")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("no backup given, use -in")
	}

	data, err := project.ImportAllData(*in)
	if err != nil {
		return err
	}
	if err := project.SaveAppConfig(a.appConfigPath(), data.Config); err != nil {
		return err
	}
	if err := project.SaveCatalog(a.catalogPath(), data.Catalog); err != nil {
		return err
	}
	for _, s := range data.Studies {
		if err := project.SaveStudy(project.StudyPath(a.studiesDir(), s.Name), s); err != nil {
			return err
		}
	}
	a.log.Info(ctx, "backup restored", logging.String("from", *in), logging.Int("studies", len(data.Studies)))
	fmt.Fprintf(a.stdout, "restored %d components, %d studies\n", data.Catalog.Len(), len(data.Studies))
	return nil
}
