package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geoscatter/internal/adapters/csvtable"
	"github.com/samirrijal/geoscatter/internal/adapters/postgres"
	"github.com/samirrijal/geoscatter/internal/adapters/staticmaps"
	"github.com/samirrijal/geoscatter/internal/app"
	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
	"github.com/samirrijal/geoscatter/internal/pkg/config"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
	"github.com/samirrijal/geoscatter/internal/pkg/logging"
)

// mapFlags are shared by the categories and scale commands.
type mapFlags struct {
	csv   string
	query string
	title string
	out   string

	zoom           int
	width          int
	height         int
	centerLat      float64
	centerLon      float64
	latColumn      string
	lonColumn      string
	markerDiameter float64
}

func (f *mapFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.csv, "csv", "", "CSV file with a header row")
	fl.StringVar(&f.query, "query", "", "SQL query run against the configured database")
	fl.StringVar(&f.title, "title", "", "figure title")
	fl.StringVarP(&f.out, "out", "o", "map.png", `output PNG file, "-" for stdout`)

	fl.IntVar(&f.zoom, "zoom", 0, "tile zoom level (default from config)")
	fl.IntVar(&f.width, "width", 0, "map width in pixels (default from config)")
	fl.IntVar(&f.height, "height", 0, "map height in pixels (default from config)")
	fl.Float64Var(&f.centerLat, "center-lat", 0, "map center latitude")
	fl.Float64Var(&f.centerLon, "center-lon", 0, "map center longitude")
	fl.StringVar(&f.latColumn, "lat-column", "", "latitude column (default from config)")
	fl.StringVar(&f.lonColumn, "lon-column", "", "longitude column (default from config)")
	fl.Float64Var(&f.markerDiameter, "marker-diameter", 0, "marker diameter in pixels (default from config)")

	cmd.MarkFlagsOneRequired("csv", "query")
	cmd.MarkFlagsMutuallyExclusive("csv", "query")
	cmd.MarkFlagsRequiredTogether("center-lat", "center-lon")
}

// view converts the flags into map overrides. A center is only set when
// both center flags were given.
func (f *mapFlags) view(cmd *cobra.Command) (domain.View, error) {
	v := domain.View{
		Width:          f.width,
		Height:         f.height,
		Zoom:           f.zoom,
		LatColumn:      f.latColumn,
		LonColumn:      f.lonColumn,
		MarkerDiameter: f.markerDiameter,
	}
	if cmd.Flags().Changed("center-lat") {
		p := domain.GeoPoint{Lat: f.centerLat, Lon: f.centerLon}
		if err := p.Validate(); err != nil {
			return v, fmt.Errorf("center: %w", err)
		}
		v.Center = &p
	}
	return v, nil
}

// env is what a render command needs, built once the flags are parsed.
type env struct {
	cfg  *config.Config
	maps *usecases.MapService
	log  *slog.Logger
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "mapctl",
		Short:         "Render scatter maps over web map tiles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	setup := func(cmd *cobra.Command) (*env, error) {
		cfg, err := config.Load("mapctl")
		if err != nil {
			return nil, err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		// PNGs may go to stdout, so logs go to stderr.
		logger := logging.New(cmd.ErrOrStderr(), level, "text")
		slog.SetDefault(logger)

		maps, err := app.NewMapService(cfg)
		if err != nil {
			return nil, err
		}
		return &env{cfg: cfg, maps: maps, log: logger}, nil
	}

	root.AddCommand(newCategoriesCmd(setup), newScaleCmd(setup), newOptionsCmd())
	return root
}

type setupFunc func(cmd *cobra.Command) (*env, error)

func newCategoriesCmd(setup setupFunc) *cobra.Command {
	var (
		flags      mapFlags
		categories []string
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Render a category map",
		Long: `Draws one dot per row and category whose boolean column is true, colored
by the category's position in the list, with one legend entry per category.
At most six categories are supported.`,
		Example: `  mapctl categories --csv shops.csv --category cafe --category bar --title "Shops" -o shops.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := flags.view(cmd)
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			rows, err := loadRows(cmd.Context(), e.cfg, flags)
			if err != nil {
				return err
			}
			fig, err := e.maps.RenderCategories(cmd.Context(), rows, categories, domain.CategoryOptions{
				Title: flags.title,
				View:  view,
			})
			if err != nil {
				return err
			}
			return writeFigure(cmd, e.log, fig, flags.out)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "boolean category column (repeatable)")
	return cmd
}

func newScaleCmd(setup setupFunc) *cobra.Command {
	var (
		flags    mapFlags
		column   string
		label    string
		colorMap string
	)
	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Render a scale map",
		Long: `Colors each row by its value of a numeric column, normalized between the
column's minimum and maximum, and adds a color bar. Rows without a value are
drawn black.`,
		Example: `  mapctl scale --query "SELECT lat, lng, price FROM shops" --column price --label EUR -o prices.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := flags.view(cmd)
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			rows, err := loadRows(cmd.Context(), e.cfg, flags)
			if err != nil {
				return err
			}
			fig, err := e.maps.RenderScale(cmd.Context(), rows, column, domain.ScaleOptions{
				Title:      flags.title,
				ScaleLabel: label,
				ColorMap:   colorMap,
				View:       view,
			})
			if err != nil {
				return err
			}
			return writeFigure(cmd, e.log, fig, flags.out)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&column, "column", "", "numeric column to color by")
	cmd.Flags().StringVar(&label, "label", "", "color bar label")
	cmd.Flags().StringVar(&colorMap, "colormap", "", "colormap name (default from config)")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List colormaps and tile providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "colormaps:      %s (default %s)\n", strings.Join(colormap.Names(), ", "), colormap.DefaultName)
			fmt.Fprintf(w, "tile providers: %s\n", strings.Join(staticmaps.ProviderNames(), ", "))
			fmt.Fprintf(w, "max categories: %d\n", len(usecases.CategoryColors))
			return nil
		},
	}
}

func loadRows(ctx context.Context, cfg *config.Config, f mapFlags) (domain.Records, error) {
	if f.csv != "" {
		return csvtable.ReadFile(f.csv)
	}
	if f.query == "" {
		return nil, errors.New("one of --csv or --query is required")
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	return postgres.NewTableRepo(db).Query(ctx, f.query)
}

func writeFigure(cmd *cobra.Command, log *slog.Logger, fig *figure.Figure, out string) error {
	if out == "-" {
		return fig.WritePNG(cmd.OutOrStdout())
	}
	if err := fig.SavePNG(out); err != nil {
		return err
	}
	log.Info("figure written", "path", out, "markers", fig.Markers)
	return nil
}
