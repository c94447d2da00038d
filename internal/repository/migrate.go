package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/pkg/database"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Migrate creates the relation tables with their unique pair index and, where
// the dialect can add them after the fact, cascading foreign keys to the
// identity table on both edge columns.
func Migrate(ctx context.Context, db *gorm.DB, identityTable string, relations ...domain.Relation) error {
	l := pkglog.Ctx(ctx)

	for _, rel := range relations {
		if err := database.AutoMigrate(db.WithContext(ctx), rel.Model); err != nil {
			return fmt.Errorf("migrate %s: %w", rel.Table, err)
		}
	}

	if identityTable == "" {
		return nil
	}
	if !db.Migrator().HasTable(identityTable) {
		l.Warn().Str("identity_table", identityTable).
			Msg("identity table not found; skipping cascade foreign keys")
		return nil
	}

	switch db.Dialector.Name() {
	case "postgres", "mysql":
	default:
		// sqlite cannot add constraints to an existing table.
		l.Info().Str("dialect", db.Dialector.Name()).
			Msg("cascade foreign keys unsupported by dialect; relying on identity purge")
		return nil
	}

	for _, rel := range relations {
		for _, column := range []string{rel.SourceColumn, rel.TargetColumn} {
			if err := addCascadeFK(ctx, db, rel.Table, column, identityTable); err != nil {
				return err
			}
		}
	}
	return nil
}

func addCascadeFK(ctx context.Context, db *gorm.DB, table, column, identityTable string) error {
	name := fmt.Sprintf("fk_%s_%s", table, column)
	if db.Migrator().HasConstraint(table, name) {
		return nil
	}

	err := db.WithContext(ctx).Exec(
		"ALTER TABLE ? ADD CONSTRAINT ? FOREIGN KEY (?) REFERENCES ?(id) ON DELETE CASCADE",
		clause.Table{Name: table},
		clause.Column{Name: name},
		clause.Column{Name: column},
		clause.Table{Name: identityTable},
	).Error
	if err != nil {
		return fmt.Errorf("add foreign key %s: %w", name, err)
	}

	l := pkglog.Ctx(ctx)
	l.Info().Str("constraint", name).Msg("cascade foreign key ensured")
	return nil
}
