package cli

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

func collectionsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections",
		Example: `  chromactl collections list
  chromactl collections create docs --metadata '{"team":"search"}'
  chromactl collections count docs`,
	}

	cmd.AddCommand(collectionsListCmd(rt))
	cmd.AddCommand(collectionsGetCmd(rt))
	cmd.AddCommand(collectionsCreateCmd(rt))
	cmd.AddCommand(collectionsDeleteCmd(rt))
	cmd.AddCommand(collectionsModifyCmd(rt))
	cmd.AddCommand(collectionsCountCmd(rt))

	return cmd
}

func collectionsListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			cols, err := client.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]collectionView, 0, len(cols))
			for _, c := range cols {
				views = append(views, viewOf(c))
			}
			return rt.print(views)
		},
	}
}

func collectionsGetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			col, err := client.GetCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(viewOf(col))
		},
	}
}

func collectionsCreateCmd(rt *runtime) *cobra.Command {
	var (
		metadata    string
		getOrCreate bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseObject("metadata", metadata)
			if err != nil {
				return err
			}
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}

			var col *chroma.Collection
			if getOrCreate {
				col, err = client.GetOrCreateCollection(cmd.Context(), args[0], meta)
			} else {
				col, err = client.CreateCollection(cmd.Context(), args[0], meta)
			}
			if err != nil {
				return err
			}
			return rt.print(viewOf(col))
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "collection metadata as a JSON object")
	cmd.Flags().BoolVar(&getOrCreate, "get-or-create", false, "return the existing collection instead of failing")
	return cmd
}

func collectionsDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and its embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.print(map[string]string{"deleted": args[0]})
		},
	}
}

func collectionsModifyCmd(rt *runtime) *cobra.Command {
	var (
		newName  string
		metadata string
	)
	cmd := &cobra.Command{
		Use:   "modify <name>",
		Short: "Rename a collection or replace its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseObject("metadata", metadata)
			if err != nil {
				return err
			}
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			col, err := client.GetCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if newName == "" {
				newName = col.Name
			}
			if err := col.Modify(cmd.Context(), newName, meta); err != nil {
				return err
			}
			return rt.print(viewOf(col))
		},
	}
	cmd.Flags().StringVar(&newName, "name", "", "new collection name")
	cmd.Flags().StringVar(&metadata, "metadata", "", "replacement metadata as a JSON object")
	return cmd
}

func collectionsCountCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "count <name>",
		Short: "Count the embeddings of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			col, err := client.GetCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := col.Count(cmd.Context())
			if err != nil {
				return err
			}
			return rt.print(map[string]any{"collection": col.Name, "count": n})
		},
	}
}
