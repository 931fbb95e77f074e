package cli

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

func queryCmd(rt *runtime) *cobra.Command {
	var (
		vectors       []string
		results       int
		where         string
		whereDocument string
		include       []string
	)
	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Find the embeddings nearest to one or more query vectors",
		Example: `  chromactl query docs --embedding 0.1,0.2,0.3 --results 5
  chromactl query docs -e 1,0 -e 0,1 --where '{"lang":"en"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := chroma.QueryOptions{Results: results, Include: include}
			for _, raw := range vectors {
				vec, err := parseVector(raw)
				if err != nil {
					return err
				}
				opts.QueryEmbeddings = append(opts.QueryEmbeddings, vec)
			}
			var err error
			if opts.Where, err = parseObject("where", where); err != nil {
				return err
			}
			if opts.WhereDocument, err = parseObject("where-document", whereDocument); err != nil {
				return err
			}

			col, err := rt.collection(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := col.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return rt.print(out)
		},
	}
	cmd.Flags().StringArrayVarP(&vectors, "embedding", "e", nil, "query vector as comma separated floats (repeatable)")
	cmd.Flags().IntVarP(&results, "results", "n", 10, "number of results per query vector")
	cmd.Flags().StringVar(&where, "where", "", "metadata filter as a JSON object")
	cmd.Flags().StringVar(&whereDocument, "where-document", "", "document filter as a JSON object")
	cmd.Flags().StringSliceVar(&include, "include", nil, "fields to include (metadatas,documents,distances,embeddings)")
	_ = cmd.MarkFlagRequired("embedding")
	return cmd
}

func getCmd(rt *runtime) *cobra.Command {
	var (
		ids           []string
		where         string
		whereDocument string
		sort          string
		limit         int
		offset        int
		page          int
		pageSize      int
		include       []string
	)
	cmd := &cobra.Command{
		Use:   "get <collection>",
		Short: "Fetch embeddings by id or filter",
		Example: `  chromactl get docs --ids a,b
  chromactl get docs --page 2 --page-size 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := chroma.GetOptions{
				IDs:      ids,
				Sort:     sort,
				Page:     page,
				PageSize: pageSize,
				Include:  include,
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				opts.Offset = &offset
			}
			var err error
			if opts.Where, err = parseObject("where", where); err != nil {
				return err
			}
			if opts.WhereDocument, err = parseObject("where-document", whereDocument); err != nil {
				return err
			}

			col, err := rt.collection(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := col.Get(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return rt.print(out)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "embedding ids")
	cmd.Flags().StringVar(&where, "where", "", "metadata filter as a JSON object")
	cmd.Flags().StringVar(&whereDocument, "where-document", "", "document filter as a JSON object")
	cmd.Flags().StringVar(&sort, "sort", "", "sort expression")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of embeddings")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of embeddings to skip")
	cmd.Flags().IntVar(&page, "page", 0, "1-based page number (with --page-size)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (with --page)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "fields to include (metadatas,documents,embeddings)")
	return cmd
}

// collection resolves a collection by name.
func (rt *runtime) collection(cmd *cobra.Command, name string) (*chroma.Collection, error) {
	client, err := rt.client(cmd)
	if err != nil {
		return nil, err
	}
	return client.GetCollection(cmd.Context(), name)
}
