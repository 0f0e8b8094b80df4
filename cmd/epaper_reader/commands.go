package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/photonicat/epaper_reader/internal/book"
	"github.com/photonicat/epaper_reader/internal/display"
	"github.com/photonicat/epaper_reader/internal/input"
	"github.com/photonicat/epaper_reader/internal/layout"
	"github.com/photonicat/epaper_reader/internal/preview"
	"github.com/photonicat/epaper_reader/internal/reader"
)

func runCmd() *cobra.Command {
	var (
		headless  bool
		pngPath   string
		previewOn bool
		booksDir  string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reader on the configured panel and input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if headless {
				cfg.Panel.Driver = "headless"
				cfg.Panel.PNGPath = pngPath
			}
			if previewOn {
				cfg.Preview.Enabled = true
			}
			if booksDir != "" {
				cfg.Books.Dir = booksDir
			}

			lib, err := book.Scan(cfg.Books.Dir, cfg.Books.MaxBooks)
			if err != nil {
				return err
			}
			log.Printf("found %d books in %s", lib.Len(), cfg.Books.Dir)

			panel, err := display.Open(cfg.Panel)
			if err != nil {
				return fmt.Errorf("open panel: %w", err)
			}
			defer panel.Close()
			mirror := display.NewMirror(panel)

			faces, err := display.LoadFaces(cfg.Fonts)
			if err != nil {
				return err
			}
			sess, err := reader.NewSession(cfg, lib, mirror, faces)
			if err != nil {
				return err
			}
			if err := sess.Start(); err != nil {
				return err
			}

			sources, err := input.OpenAll(cfg.Input)
			if err != nil && !(errors.Is(err, input.ErrNoInput) && cfg.Preview.Enabled) {
				return err
			}
			defer input.CloseAll(sources)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Preview.Enabled {
				remote := input.NewChanSource("remote", input.RoleAux)
				sources = append(sources, remote)
				srv := preview.New(mirror, sess, remote)
				go func() {
					if err := srv.Listen(ctx, cfg.Preview.Listen); err != nil {
						log.Printf("preview server: %v", err)
					}
				}()
			}

			err = reader.NewLoop(sess, sources, cfg.Input).Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Println("shutting down")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "use the headless panel instead of hardware")
	cmd.Flags().StringVar(&pngPath, "png", "", "with --headless, write every refreshed frame to this PNG")
	cmd.Flags().BoolVar(&previewOn, "preview", false, "serve the frame preview and remote commands")
	cmd.Flags().StringVar(&booksDir, "books", "", "override books.dir")
	return cmd
}

func paginateCmd() *cobra.Command {
	var showOffsets bool
	cmd := &cobra.Command{
		Use:   "paginate <file>",
		Short: "Print the encoding and page index of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := book.Load(args[0], cfg.Books.MaxSize)
			if err != nil {
				return err
			}
			faces, err := display.LoadFaces(cfg.Fonts)
			if err != nil {
				return err
			}
			bounds := image.Rect(0, 0, cfg.Panel.Width, cfg.Panel.Height)
			lay, err := layout.New(reader.LayoutParams(cfg.Layout, bounds, faces), faces.Metrics(b.Encoding), b.Encoding)
			if err != nil {
				return err
			}
			idx, buildErr := lay.Build(b.Text)
			var degenerate *layout.DegenerateError
			if buildErr != nil && !errors.As(buildErr, &degenerate) {
				return buildErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", b.Title(0))
			fmt.Fprintf(out, "encoding: %s\n", b.Encoding)
			fmt.Fprintf(out, "normalized: %d bytes\n", len(b.Text))
			fmt.Fprintf(out, "pages: %d\n", idx.Total(len(b.Text)))
			if degenerate != nil {
				fmt.Fprintf(out, "warning: %v\n", degenerate)
			}
			if showOffsets {
				for i, off := range idx.Offsets() {
					fmt.Fprintf(out, "%6d %d\n", i+1, off)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showOffsets, "offsets", false, "list the start offset of every page")
	return cmd
}

func renderCmd() *cobra.Command {
	var (
		page int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw one page of a book to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("page must be at least 1")
			}
			faces, err := display.LoadFaces(cfg.Fonts)
			if err != nil {
				return err
			}
			panel := display.NewHeadless(cfg.Panel.Width, cfg.Panel.Height, "")
			sess, err := reader.NewSession(cfg, book.NewLibrary(args[0]), panel, faces)
			if err != nil {
				return err
			}
			if err := sess.Start(); err != nil {
				return err
			}
			if err := sess.JumpTo(page); err != nil {
				return err
			}
			if err := display.SavePNG(panel.Glass(), out); err != nil {
				return err
			}
			st := sess.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", st.Book, st.Footer, out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number to draw")
	cmd.Flags().StringVarP(&out, "out", "o", "page.png", "output PNG file")
	return cmd
}
