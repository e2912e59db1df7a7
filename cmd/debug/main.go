package main

import (
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func main() {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	source := []byte(`import pandas as pd
df = pd.read_csv('data.csv')
train, test = train_test_split(df, test_size=0.2, random_state=42)
model.fit(train)
`)

	tree, _ := parser.ParseCtx(nil, nil, source)
	root := tree.RootNode()

	// Find the first call with keyword arguments
	var findCall func(n *sitter.Node) *sitter.Node
	findCall = func(n *sitter.Node) *sitter.Node {
		if n.Type() == "call" {
			args := n.ChildByFieldName("arguments")
			if args != nil {
				for i := 0; i < int(args.ChildCount()); i++ {
					if args.Child(i).Type() == "keyword_argument" {
						return n
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if found := findCall(n.Child(i)); found != nil {
				return found
			}
		}
		return nil
	}

	callNode := findCall(root)
	if callNode == nil {
		fmt.Println("No call with keyword arguments found")
		os.Exit(1)
	}

	fmt.Printf("call has %d children:\n", callNode.ChildCount())
	for i := 0; i < int(callNode.ChildCount()); i++ {
		child := callNode.Child(i)
		fieldName := callNode.FieldNameForChild(i)
		fmt.Printf("  [%d] type=%s field=%q content=%q\n", i, child.Type(), fieldName, child.Content(source))
	}

	args := callNode.ChildByFieldName("arguments")
	fmt.Printf("arguments has %d children:\n", args.ChildCount())
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		fmt.Printf("  [%d] type=%s content=%q\n", i, child.Type(), child.Content(source))
	}
}
