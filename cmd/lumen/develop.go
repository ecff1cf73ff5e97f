package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"lumen/bvh"
	"lumen/checkpoint"
	"lumen/scene"
	"lumen/scenepack"

	"github.com/spf13/cobra"
)

var cmdDevelop = &cobra.Command{
	Use:   "develop",
	Short: "Develop a checkpointed accumulation into an image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if developStore == "" || developKey == "" {
			return fmt.Errorf("--checkpoint-store and --checkpoint-key are required")
		}

		store, err := checkpoint.Open(ctx, developStore, gcsOptions()...)
		if err != nil {
			return fmt.Errorf("while opening checkpoint store: %w", err)
		}
		defer store.Close()

		acc, err := store.Get(ctx, developKey)
		if err != nil {
			return fmt.Errorf("while loading checkpoint %q: %w", developKey, err)
		}

		return writeImage(developOutput, scene.Develop(acc))
	},
}

var (
	developStore  string
	developKey    string
	developOutput string
)

func init() {
	cmdDevelop.Flags().StringVar(&developStore, "checkpoint-store", "", "Checkpoint store URL.")
	cmdDevelop.Flags().StringVar(&developKey, "checkpoint-key", "", "Checkpoint key.")
	cmdDevelop.Flags().StringVar(&developOutput, "output", "", "Write the developed image to this file (.png or .ppm).  If empty, write PPM to stdout.")
}

var cmdCheckpoints = &cobra.Command{
	Use:   "checkpoints",
	Short: "List the accumulations in a checkpoint store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if checkpointsStore == "" {
			return fmt.Errorf("--checkpoint-store is required")
		}

		store, err := checkpoint.Open(ctx, checkpointsStore, gcsOptions()...)
		if err != nil {
			return fmt.Errorf("while opening checkpoint store: %w", err)
		}
		defer store.Close()

		keys, err := store.Keys(ctx)
		if err != nil {
			return fmt.Errorf("while listing checkpoints: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "key\tsize\tsamples\n")
		for _, key := range keys {
			acc, err := store.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("while loading checkpoint %q: %w", key, err)
			}
			fmt.Fprintf(w, "%s\t%dx%d\t%d\n", key, acc.Sums.ColSize, acc.Sums.RowSize, acc.Samples)
		}
		return w.Flush()
	},
}

var checkpointsStore string

func init() {
	cmdCheckpoints.Flags().StringVar(&checkpointsStore, "checkpoint-store", "", "Checkpoint store URL.")
}

var cmdBVHStats = &cobra.Command{
	Use:   "bvh-stats",
	Short: "Print the shape of a scene's bounding volume hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadScene(nil, bvhStatsScene, bvhStatsSeed, false)
		if err != nil {
			return err
		}
		root, ok := s.World.(*bvh.Node)
		if !ok {
			return fmt.Errorf("scene %q world is %T, not a BVH", s.Name, s.World)
		}

		st := root.Stats()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "scene\t%s\n", s.Name)
		fmt.Fprintf(w, "leaves\t%d\n", st.LeafCount)
		fmt.Fprintf(w, "nodes\t%d\n", st.NodeCount)
		fmt.Fprintf(w, "height\t%d\n", st.Height)
		fmt.Fprintf(w, "area ratio\t%.2f\n", st.AreaRatio)
		fmt.Fprintf(w, "bounds\t%v\n", root.GetAABox())
		return w.Flush()
	},
}

var (
	bvhStatsScene string
	bvhStatsSeed  int64
)

func init() {
	cmdBVHStats.Flags().StringVar(&bvhStatsScene, "scene", "random", "Name of the scene.")
	cmdBVHStats.Flags().Int64Var(&bvhStatsSeed, "scene-seed", 1, "Seed for random scene layout.")
}

var cmdScenes = &cobra.Command{
	Use:   "scenes",
	Short: "List the built-in scenes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range scenepack.Names() {
			fmt.Println(name)
		}
		return nil
	},
}
