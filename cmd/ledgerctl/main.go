// ledgerctl tareas de mantenimiento sobre el almacenamiento local: respaldos, restauración,
// conciliación y vencimiento de facturas.
//
// Uso:
//
//	ledgerctl backup
//	ledgerctl list
//	ledgerctl restore -name backup-20260101T000000.000000000Z.json
//	ledgerctl export > snapshot.json
//	ledgerctl import -file snapshot.json
//	ledgerctl reconcile -item <id> | -party <id>
//	ledgerctl overdue [-as-of 2026-01-31T00:00:00Z]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/app"
	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/spf13/afero"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})

	container, err := app.New(cfg, log, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "armar componentes: %v\n", err)
		os.Exit(1)
	}
	defer container.Close()

	ctx := context.Background()
	if err := app.Fatal(container.Init(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "inicializar: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, container, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: ledgerctl <backup|list|restore|export|import|reconcile|overdue> [flags]")
}

func run(ctx context.Context, c *app.Container, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	switch cmd {
	case "backup":
		handle, err := c.Backup.CreateBackup(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, handle)

	case "list":
		list, err := c.Backup.ListBackups(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, list)

	case "restore":
		name := fs.String("name", "", "Requerido: nombre del respaldo (ver ledgerctl list)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("-name es requerido")
		}
		snap, err := c.Backup.RestoreBackup(ctx, *name)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{"name": *name, "version": snap.Version, "record_count": snap.RecordCount})

	case "export":
		snap, err := c.Backup.ExportSnapshot(ctx)
		if err != nil {
			return err
		}
		doc, err := backup.Encode(snap)
		if err != nil {
			return err
		}
		_, err = out.Write(doc)
		return err

	case "import":
		file := fs.String("file", "", "Requerido: ruta del snapshot JSON")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if strings.TrimSpace(*file) == "" {
			return fmt.Errorf("-file es requerido")
		}
		doc, err := afero.ReadFile(afero.NewOsFs(), *file)
		if err != nil {
			return fmt.Errorf("leer %s: %w", *file, err)
		}
		snap, err := c.Backup.ImportSnapshot(ctx, doc)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{"version": snap.Version, "record_count": snap.RecordCount})

	case "reconcile":
		itemID := fs.String("item", "", "ID del ítem a conciliar contra su ledger")
		partyID := fs.String("party", "", "ID del tercero a conciliar contra facturas y abonos")
		if err := fs.Parse(args); err != nil {
			return err
		}
		switch {
		case *itemID != "":
			check, err := c.Ledger.ReconcileStock(ctx, *itemID)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]any{
				"item_id": check.ItemID, "cached": check.Cached, "recomputed": check.Recomputed,
				"movements": check.Movements, "consistent": check.Consistent(),
			})
		case *partyID != "":
			check, err := c.Balances.Reconcile(ctx, *partyID)
			if err != nil {
				return err
			}
			return printJSON(out, check)
		default:
			return fmt.Errorf("indique -item o -party")
		}

	case "overdue":
		asOfStr := fs.String("as-of", "", "Opcional: fecha de corte RFC3339 (por defecto ahora)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		asOf := time.Now().UTC()
		if *asOfStr != "" {
			t, err := time.Parse(time.RFC3339, *asOfStr)
			if err != nil {
				return fmt.Errorf("-as-of inválido: %w", err)
			}
			asOf = t
		}
		list, err := c.Coordinator.MarkOverdue(ctx, asOf)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(list))
		for _, inv := range list {
			ids = append(ids, inv.ID)
		}
		return printJSON(out, map[string]any{"marked": len(ids), "invoice_ids": ids})
	}
	usage()
	return fmt.Errorf("comando desconocido")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
