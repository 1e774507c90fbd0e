package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/internal/tenant"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/spf13/cobra"
)

// TenantOps is the subset of the tenant service the CLI drives.
type TenantOps interface {
	Register(ctx context.Context, in tenant.RegisterInput) (*models.Tenant, *models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	List(ctx context.Context, status string) ([]*models.Tenant, error)
	SetStatus(ctx context.Context, id uuid.UUID, status, by string) error
	SoftDelete(ctx context.Context, id uuid.UUID, by string) error
	DropNamespace(ctx context.Context, id uuid.UUID, by string) error
	SetFeature(ctx context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any, by string) (*models.FeatureFlag, error)
	GetFeature(ctx context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error)
}

// NamespaceInspector lists the tables of a namespace.
type NamespaceInspector interface {
	Tables(ctx context.Context, schema store.Schema) ([]string, error)
}

type env struct {
	tenants    TenantOps
	namespaces NamespaceInspector
	migrate    func() error
	close      func()
}

type opener func(ctx context.Context) (*env, error)

var errNotConfirmed = errors.New("refusing to drop namespace without --confirm")

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "hrmsctl",
		Short:         "HRMS operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("by", defaultActor(), "Actor recorded in the tenant audit trail")

	root.AddCommand(
		migrateCmd(open),
		tenantCmd(open),
		featureCmd(open),
	)
	return root
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return "operator:" + u
	}
	return "operator"
}

// withEnv opens the environment for the duration of one command.
func withEnv(open opener, fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if e.close != nil {
			defer e.close()
		}
		return fn(cmd, args, e)
	}
}

func actor(cmd *cobra.Command) string {
	by, _ := cmd.Flags().GetString("by")
	return by
}

// lookupTenant accepts either a tenant id or a slug.
func lookupTenant(ctx context.Context, ops TenantOps, ref string) (*models.Tenant, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return ops.Get(ctx, id)
	}
	return ops.GetBySlug(ctx, strings.ToLower(ref))
}

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply directory migrations",
		Args:  cobra.NoArgs,
		RunE: withEnv(open, func(cmd *cobra.Command, _ []string, e *env) error {
			if err := e.migrate(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	}
}

func tenantCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(
		tenantCreateCmd(open),
		tenantListCmd(open),
		tenantGetCmd(open),
		tenantStatusCmd(open, "suspend", models.TenantStatusSuspended),
		tenantStatusCmd(open, "activate", models.TenantStatusActive),
		tenantDeleteCmd(open),
		tenantDropSchemaCmd(open),
	)
	return cmd
}

func tenantCreateCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a tenant and provision its namespace",
		Args:  cobra.NoArgs,
		RunE: withEnv(open, func(cmd *cobra.Command, _ []string, e *env) error {
			f := cmd.Flags()
			name, _ := f.GetString("name")
			slug, _ := f.GetString("slug")
			email, _ := f.GetString("admin-email")
			password, _ := f.GetString("admin-password")
			adminName, _ := f.GetString("admin-name")

			t, _, err := e.tenants.Register(cmd.Context(), tenant.RegisterInput{
				CompanyName:   name,
				Slug:          slug,
				AdminEmail:    email,
				AdminPassword: password,
				AdminName:     adminName,
			})
			if err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}
			printTenant(cmd.OutOrStdout(), t)
			return nil
		}),
	}
	f := cmd.Flags()
	f.String("name", "", "Company name")
	f.String("slug", "", "Tenant slug")
	f.String("admin-email", "", "Email of the first admin user")
	f.String("admin-password", "", "Password of the first admin user")
	f.String("admin-name", "", "Name of the first admin user")
	for _, name := range []string{"name", "slug", "admin-email", "admin-password", "admin-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func tenantListCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: withEnv(open, func(cmd *cobra.Command, _ []string, e *env) error {
			status, _ := cmd.Flags().GetString("status")
			if status != "" && !models.ValidTenantStatus(status) {
				return fmt.Errorf("unknown status %q", status)
			}
			tenants, err := e.tenants.List(cmd.Context(), status)
			if err != nil {
				return fmt.Errorf("list tenants: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tSTATUS\tSCHEMA\tNAME")
			for _, t := range tenants {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Slug, t.Status, t.SchemaName, t.Name)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().String("status", "", "Filter by status (active, suspended, inactive)")
	return cmd
}

func tenantGetCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id|slug>",
		Short: "Show a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
			if err != nil {
				return fmt.Errorf("get tenant: %w", err)
			}
			printTenant(cmd.OutOrStdout(), t)

			if withTables, _ := cmd.Flags().GetBool("tables"); withTables {
				schema, err := store.ParseSchema(t.SchemaName)
				if err != nil {
					return err
				}
				tables, err := e.namespaces.Tables(cmd.Context(), schema)
				if err != nil {
					return fmt.Errorf("list namespace tables: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tables:\t%s\n", strings.Join(tables, ", "))
			}
			return nil
		}),
	}
	cmd.Flags().Bool("tables", false, "Also list the tables present in the tenant namespace")
	return cmd
}

func tenantStatusCmd(open opener, use, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|slug>",
		Short: fmt.Sprintf("Set tenant status to %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
			if err != nil {
				return fmt.Errorf("get tenant: %w", err)
			}
			if err := e.tenants.SetStatus(cmd.Context(), t.ID, status, actor(cmd)); err != nil {
				return fmt.Errorf("%s tenant: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s is now %s\n", t.Slug, status)
			return nil
		}),
	}
}

func tenantDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|slug>",
		Short: "Soft delete a tenant (the namespace is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
			if err != nil {
				return fmt.Errorf("get tenant: %w", err)
			}
			if err := e.tenants.SoftDelete(cmd.Context(), t.ID, actor(cmd)); err != nil {
				return fmt.Errorf("delete tenant: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s deleted; namespace %s retained\n", t.Slug, t.SchemaName)
			return nil
		}),
	}
}

func tenantDropSchemaCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop-schema <id|slug>",
		Short: "Irreversibly drop the namespace of a deleted tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm, _ := cmd.Flags().GetBool("confirm"); !confirm {
				return errNotConfirmed
			}
			return withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
				t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
				if err != nil {
					return fmt.Errorf("get tenant: %w", err)
				}
				if err := e.tenants.DropNamespace(cmd.Context(), t.ID, actor(cmd)); err != nil {
					return fmt.Errorf("drop namespace: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "namespace %s dropped\n", t.SchemaName)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().Bool("confirm", false, "Confirm the irreversible drop")
	return cmd
}

func featureCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Manage tenant feature flags",
	}

	set := &cobra.Command{
		Use:   "set <id|slug> <feature> <on|off>",
		Short: "Enable or disable a feature for a tenant",
		Args:  cobra.ExactArgs(3),
		RunE: withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
			enabled, err := parseSwitch(args[2])
			if err != nil {
				return err
			}
			t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
			if err != nil {
				return fmt.Errorf("get tenant: %w", err)
			}
			f, err := e.tenants.SetFeature(cmd.Context(), t.ID, args[1], enabled, nil, actor(cmd))
			if err != nil {
				return fmt.Errorf("set feature: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%t\n", t.Slug, f.FeatureName, f.Enabled)
			return nil
		}),
	}

	get := &cobra.Command{
		Use:   "get <id|slug> <feature>",
		Short: "Show a feature flag",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(open, func(cmd *cobra.Command, args []string, e *env) error {
			t, err := lookupTenant(cmd.Context(), e.tenants, args[0])
			if err != nil {
				return fmt.Errorf("get tenant: %w", err)
			}
			f, err := e.tenants.GetFeature(cmd.Context(), t.ID, args[1])
			if errors.Is(err, store.ErrNotFound) {
				// Unset flags are disabled.
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%t\n", t.Slug, args[1], false)
				return nil
			}
			if err != nil {
				return fmt.Errorf("get feature: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%t\n", t.Slug, f.FeatureName, f.Enabled)
			return nil
		}),
	}

	cmd.AddCommand(set, get)
	return cmd
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enable", "enabled":
		return true, nil
	case "off", "false", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func printTenant(w io.Writer, t *models.Tenant) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", t.ID)
	fmt.Fprintf(tw, "name:\t%s\n", t.Name)
	fmt.Fprintf(tw, "slug:\t%s\n", t.Slug)
	fmt.Fprintf(tw, "schema:\t%s\n", t.SchemaName)
	fmt.Fprintf(tw, "status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "admin_email:\t%s\n", t.AdminEmail)
	if t.DeletedAt != nil {
		fmt.Fprintf(tw, "deleted_at:\t%s\n", t.DeletedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	_ = tw.Flush()
}
