package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/region"
)

func newRegionCommand(e *env) *cobra.Command {
	var add, force bool
	cmd := &cobra.Command{
		Use:   "region [dir]...",
		Short: "Define, extend or list regions",
		Long: `A region is a named, ordered list of directories stored in the config
file. Commands accept a region name wherever they accept a target.

Without directories, lists all regions, or the directories of --region.
With directories, defines the region named by --region. An existing region
is only replaced with --force; --add appends to it instead.`,
		Example: `  cvutie region -r hw01 alice/hw01 bob/hw01
  cvutie region -r hw01 --add carol/hw01
  cvutie region`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if add && force {
				return cverrors.Validationf("--add and --force are mutually exclusive")
			}
			res, err := e.loadConfig()
			if err != nil {
				return err
			}
			cfg := res.Config.Clone()
			name := e.opts.region

			if len(args) == 0 {
				return e.listRegions(cfg.Regions, name)
			}
			if name == "" {
				return cverrors.Validationf("region name is required (use --region)")
			}
			if cverrors.IsKind(res.Fallback, cverrors.KindConfigUnreadable) {
				return cverrors.Configf("not saving region %q: %s could not be read and would be overwritten", name, e.store.Path())
			}

			if add {
				err = region.Extend(cfg, name, args)
			} else {
				err = region.Define(cfg, name, args, force)
			}
			if err != nil {
				return err
			}
			if err := e.store.Save(cfg); err != nil {
				return err
			}
			e.out.Success("region %s saved", region.Describe(name, cfg.Regions[name]))
			e.out.Debug("config %s", e.store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&add, "add", "a", false, "append directories to the region")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing region")
	return cmd
}

func (e *env) listRegions(regions map[string][]string, name string) error {
	if name != "" {
		dirs, ok := regions[name]
		if !ok {
			return cverrors.UnknownTarget(name)
		}
		for _, d := range dirs {
			e.out.Println("%s", d)
		}
		return nil
	}
	if len(regions) == 0 {
		e.out.Info("no regions defined")
		return nil
	}
	rows := make([][]string, 0, len(regions))
	for _, n := range region.Names(regions) {
		rows = append(rows, []string{n, strconv.Itoa(len(regions[n])), strings.Join(regions[n], " ")})
	}
	e.out.Table([]string{"NAME", "DIRS", "PATHS"}, rows)
	return nil
}
