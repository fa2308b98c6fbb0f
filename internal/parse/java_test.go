package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/codegraph/internal/graph"
)

// ---------------------------------------------------------------------------
// TestParseJava_ClassWithMethod
// ---------------------------------------------------------------------------

func TestParseJava_ClassWithMethod(t *testing.T) {
	src := `public class Greeter {
    public String greet(String name) {
        return "Hello, " + name;
    }
}
`
	res := parseFile(t, "src/main/java/app/Greeter.java", src)

	require.Len(t, res.Nodes, 2)

	class := findNode(res.Nodes, "Greeter")
	require.NotNil(t, class)
	assert.Equal(t, graph.NodeKindClass, class.Kind)
	assert.Equal(t, graph.LangJava, class.Language)
	assert.Equal(t, graph.VisibilityPublic, class.Modifiers.Visibility)
	assert.Equal(t, 1, class.StartLine)
	assert.Equal(t, 5, class.EndLine)

	method := findNode(res.Nodes, "greet")
	require.NotNil(t, method)
	assert.Equal(t, graph.NodeKindMethod, method.Kind)
	assert.Equal(t, graph.VisibilityPublic, method.Modifiers.Visibility)
	assert.False(t, method.Modifiers.Static)
	assert.Equal(t, "String", method.ReturnType)
	require.Len(t, method.Parameters, 1)
	assert.Equal(t, graph.Parameter{Name: "name", Type: "String"}, method.Parameters[0])

	contains := edgesByKind(res.Edges, graph.EdgeKindContains)
	require.Len(t, contains, 1)
	assert.Equal(t, class.ID, contains[0].From)
	assert.Equal(t, method.ID, contains[0].To)
}

// ---------------------------------------------------------------------------
// TestParseJava_Inheritance
// ---------------------------------------------------------------------------

func TestParseJava_Inheritance(t *testing.T) {
	src := `public abstract class OrderList<E> extends AbstractList<E> implements List<E>, RandomAccess {
}
`
	res := parseFile(t, "OrderList.java", src)

	class := findNode(res.Nodes, "OrderList")
	require.NotNil(t, class)
	assert.True(t, class.Modifiers.Abstract)

	ext := edgesByKind(res.Edges, graph.EdgeKindExtends)
	require.Len(t, ext, 1)
	assert.Equal(t, "OrderList.java", ext[0].From)
	assert.Equal(t, "AbstractList", ext[0].To, "generics are stripped from edge targets")
	assert.Equal(t, "OrderList extends AbstractList", ext[0].Label)

	impl := edgesByKind(res.Edges, graph.EdgeKindImplements)
	require.Len(t, impl, 2)
	assert.Equal(t, "List", impl[0].To)
	assert.Equal(t, "RandomAccess", impl[1].To)
}

// ---------------------------------------------------------------------------
// TestParseJava_Interface
// ---------------------------------------------------------------------------

func TestParseJava_Interface(t *testing.T) {
	src := `public interface Repository {
    User findById(long id);

    default String name() {
        return "repo";
    }
}
`
	res := parseFile(t, "Repository.java", src)

	iface := findNode(res.Nodes, "Repository")
	require.NotNil(t, iface)
	assert.Equal(t, graph.NodeKindInterface, iface.Kind)

	findByID := findNode(res.Nodes, "findById")
	require.NotNil(t, findByID)
	assert.Equal(t, graph.VisibilityPublic, findByID.Modifiers.Visibility,
		"interface members default to public")
	assert.Equal(t, "User", findByID.ReturnType)
	require.Len(t, findByID.Parameters, 1)
	assert.Equal(t, "id", findByID.Parameters[0].Name)

	name := findNode(res.Nodes, "name")
	require.NotNil(t, name)
	assert.Empty(t, name.Parameters)
}

// ---------------------------------------------------------------------------
// TestParseJava_Modifiers
// ---------------------------------------------------------------------------

func TestParseJava_Modifiers(t *testing.T) {
	src := `public class MathUtil {
    private static int counter;

    public static int add(int a, int b) {
        return a + b;
    }

    private void reset() {
        counter = 0;
    }
}
`
	res := parseFile(t, "MathUtil.java", src)

	add := findNode(res.Nodes, "add")
	require.NotNil(t, add)
	assert.True(t, add.Modifiers.Static)
	assert.Equal(t, graph.VisibilityPublic, add.Modifiers.Visibility)
	require.Len(t, add.Parameters, 2)
	assert.Equal(t, "a", add.Parameters[0].Name)
	assert.Equal(t, "int", add.Parameters[0].Type)

	reset := findNode(res.Nodes, "reset")
	require.NotNil(t, reset)
	assert.Equal(t, graph.VisibilityPrivate, reset.Modifiers.Visibility)
	assert.False(t, reset.Modifiers.Static)

	assert.Nil(t, findNode(res.Nodes, "counter"), "fields are not extracted")
}

// ---------------------------------------------------------------------------
// TestParseJava_OneLineClass
// ---------------------------------------------------------------------------

func TestParseJava_OneLineClass(t *testing.T) {
	src := "public class Tiny { public int id() { return 7; } }\n"
	res := parseFile(t, "Tiny.java", src)

	require.Len(t, res.Nodes, 2)
	assert.Equal(t, "Tiny", res.Nodes[0].Name)
	assert.Equal(t, "id", res.Nodes[1].Name)
	assert.Equal(t, 1, res.Nodes[1].StartLine)
}

// ---------------------------------------------------------------------------
// TestParseJava_Annotations
// ---------------------------------------------------------------------------

func TestParseJava_Annotations(t *testing.T) {
	src := `@Deprecated
public class Legacy {
    @Override
    public String toString() {
        return "legacy";
    }
}
`
	res := parseFile(t, "Legacy.java", src)

	legacy := findNode(res.Nodes, "Legacy")
	require.NotNil(t, legacy)
	assert.True(t, strings.HasPrefix(legacy.Source, "@Deprecated\n"),
		"class annotations are part of the declaration text")
	assert.Equal(t, 2, legacy.StartLine, "identity stays on the class header line")

	toString := findNode(res.Nodes, "toString")
	require.NotNil(t, toString, "annotated methods are still detected")
	assert.Equal(t, 4, toString.StartLine)
}

func TestParseJava_AnnotationsClearedByCode(t *testing.T) {
	src := `@Deprecated
int x = 0;

public class Fresh {}
`
	res := parseFile(t, "Fresh.java", src)

	fresh := findNode(res.Nodes, "Fresh")
	require.NotNil(t, fresh)
	assert.Equal(t, "public class Fresh {}", fresh.Source,
		"an intervening substantive line detaches the annotation")
}

// ---------------------------------------------------------------------------
// TestParseJava_ConstructorsSkipped
// ---------------------------------------------------------------------------

func TestParseJava_ConstructorsSkipped(t *testing.T) {
	src := `public class Account {
    public Account(String owner) {
        this.owner = owner;
    }

    public String owner() {
        return owner;
    }
}
`
	res := parseFile(t, "Account.java", src)

	names := make([]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Account", "owner"}, names,
		"the constructor must not appear as a method")
}

// ---------------------------------------------------------------------------
// TestParseJava_MultiLineParameters
// ---------------------------------------------------------------------------

func TestParseJava_MultiLineParameters(t *testing.T) {
	src := `public class Mapper {
    public Map<String, Integer> build(
            List<String> keys,
            Map<String, Integer> defaults) {
        return defaults;
    }
}
`
	res := parseFile(t, "Mapper.java", src)

	build := findNode(res.Nodes, "build")
	require.NotNil(t, build)
	require.Len(t, build.Parameters, 2, "generic commas must not split parameters")
	assert.Equal(t, "keys", build.Parameters[0].Name)
	assert.Equal(t, "List<String>", build.Parameters[0].Type)
	assert.Equal(t, "defaults", build.Parameters[1].Name)
}
