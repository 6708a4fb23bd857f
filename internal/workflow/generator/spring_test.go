// File path: internal/workflow/generator/spring_test.go
package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

func primitive(name string) *ir.SchemaType {
	return &ir.SchemaType{Name: name, Kind: ir.KindPrimitive}
}

func loanPlan(arch ir.Architecture, styles ir.StyleSet) *ir.ProcessPlan {
	request := &ir.SchemaType{Name: "LoanRequest", Kind: ir.KindSequence, Fields: []ir.SchemaField{
		{Name: "customerID", Type: primitive(ir.PrimitiveString), Required: true},
		{Name: "loanAmount", Type: primitive(ir.PrimitiveDecimal), Required: true},
		{Name: "submitted", Type: primitive(ir.PrimitiveDateTime)},
		{Name: "notes", Type: primitive(ir.PrimitiveString), Repeated: true},
		{Name: "attachment"},
	}}
	unit := &ir.ProcessUnit{
		Folder: "/in/LoanApp",
		Name:   "LoanApp",
		Activities: []ir.Activity{
			{ID: "a1", Kind: ir.ActivityInboundCall, Name: "ReceiveLoan", Input: request, Attributes: map[string]string{"http.method": "POST", "http.path": "/loans"}},
			{ID: "a2", Kind: ir.ActivityDataAccess, Name: "StoreLoan", Input: request, Attributes: map[string]string{"sql.statement": "INSERT INTO loans(id, amount)\n VALUES (?, ?)"}},
			{ID: "a3", Kind: ir.ActivityMessagingSend, Name: "NotifyUnderwriter", Attributes: map[string]string{"jms.queue": "loans.new"}},
			{ID: "a4", Kind: ir.ActivityOutboundCall, Name: "CheckCredit", Attributes: map[string]string{"http.url": "http://credit/score", "http.method": "GET"}},
			{ID: "a5", Kind: ir.ActivityMessagingReceive, Name: "AwaitDecision", Attributes: map[string]string{"jms.queue": "loans.decision"}},
		},
		Schemas: []*ir.SchemaType{request},
	}
	return &ir.ProcessPlan{
		ProcessName:  "LoanApp",
		PackageRoot:  "com.example",
		Styles:       styles,
		Architecture: arch,
		Unit:         unit,
		Insights:     []ir.Insight{{Query: "SQL database operation", SourceProcess: "LoanApp", ActivityID: "a2", Score: 1}},
	}
}

func TestSpringRendererLayeredREST(t *testing.T) {
	files, err := NewSpringRenderer(nil).Render(context.Background(), loanPlan(ir.ArchitectureLayered, ir.StyleSet{ir.StyleREST}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	root := "src/main/java/com/example/loanapp/"
	for _, rel := range []string{
		"pom.xml",
		"README.md",
		"src/main/resources/application.yml",
		root + "Application.java",
		"src/test/java/com/example/loanapp/ApplicationTests.java",
		root + "dto/LoanRequest.java",
		root + "service/LoanAppService.java",
		root + "controller/LoanAppController.java",
		root + "repository/LoanAppRepository.java",
		root + "messaging/LoanAppPublisher.java",
		root + "messaging/LoanAppListener.java",
		root + "client/LoanAppClient.java",
	} {
		if _, ok := files[rel]; !ok {
			t.Errorf("expected %s to be rendered", rel)
		}
	}
	if _, ok := files[root+"endpoint/LoanAppEndpoint.java"]; ok {
		t.Fatalf("REST-only plan should not render a SOAP endpoint")
	}

	dto := files[root+"dto/LoanRequest.java"]
	for _, want := range []string{
		"private String customerID;",
		"private BigDecimal loanAmount;",
		"private LocalDateTime submitted;",
		"private List<String> notes;",
		"private String attachment;",
		"import java.math.BigDecimal;",
		"import java.time.LocalDateTime;",
		"import java.util.List;",
		"public BigDecimal getLoanAmount()",
	} {
		if !strings.Contains(dto, want) {
			t.Errorf("dto missing %q:\n%s", want, dto)
		}
	}
	if strings.Contains(dto, "import java.time.LocalDate;") {
		t.Errorf("dto should not import LocalDate:\n%s", dto)
	}

	service := files[root+"service/LoanAppService.java"]
	order := []string{"repository.storeLoan(request);", "publisher.notifyUnderwriter(request);", "client.checkCredit(request);"}
	last := -1
	for _, call := range order {
		idx := strings.Index(service, call)
		if idx < 0 {
			t.Fatalf("service missing %q:\n%s", call, service)
		}
		if idx < last {
			t.Fatalf("service calls out of source order:\n%s", service)
		}
		last = idx
	}

	repo := files[root+"repository/LoanAppRepository.java"]
	if !strings.Contains(repo, `"INSERT INTO loans(id, amount) VALUES (?, ?)"`) || !strings.Contains(repo, "jdbcTemplate.update(STORE_LOAN_SQL, params)") {
		t.Fatalf("repository missing statement:\n%s", repo)
	}
	client := files[root+"client/LoanAppClient.java"]
	if !strings.Contains(client, `HttpMethod.valueOf("GET")`) || !strings.Contains(client, `"http://credit/score"`) {
		t.Fatalf("client missing call details:\n%s", client)
	}
	controller := files[root+"controller/LoanAppController.java"]
	if !strings.Contains(controller, `@PostMapping("/loans")`) || !strings.Contains(controller, "ResponseEntity<String> process(@RequestBody LoanRequest request)") {
		t.Fatalf("unexpected controller:\n%s", controller)
	}
	pom := files["pom.xml"]
	for _, dep := range []string{"spring-boot-starter-web", "spring-boot-starter-jdbc", "spring-boot-starter-activemq"} {
		if !strings.Contains(pom, dep) {
			t.Errorf("pom missing %s", dep)
		}
	}
	if strings.Contains(pom, "spring-boot-starter-web-services") {
		t.Errorf("REST-only pom should not include web services")
	}
	if !strings.Contains(files["README.md"], "SQL database operation") {
		t.Errorf("readme should list insights:\n%s", files["README.md"])
	}
}

func TestSpringRendererHexagonalCombined(t *testing.T) {
	files, err := NewSpringRenderer(nil).Render(context.Background(), loanPlan(ir.ArchitectureHexagonal, ir.StyleSet{ir.StyleREST, ir.StyleSOAP}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	root := "src/main/java/com/example/loanapp/"
	for _, rel := range []string{
		root + "domain/model/LoanRequest.java",
		root + "domain/port/input/LoanAppUseCase.java",
		root + "domain/service/LoanAppService.java",
		root + "domain/port/output/LoanAppRepository.java",
		root + "domain/port/output/LoanAppMessagePublisher.java",
		root + "domain/port/output/LoanAppGateway.java",
		root + "adapter/output/persistence/LoanAppPersistenceAdapter.java",
		root + "adapter/output/messaging/LoanAppJmsAdapter.java",
		root + "adapter/output/http/LoanAppHttpAdapter.java",
		root + "adapter/input/rest/LoanAppRestController.java",
		root + "adapter/input/soap/LoanAppSoapEndpoint.java",
		root + "adapter/input/messaging/LoanAppJmsListener.java",
		root + "config/WebServiceConfig.java",
	} {
		if _, ok := files[rel]; !ok {
			t.Errorf("expected %s to be rendered", rel)
		}
	}
	service := files[root+"domain/service/LoanAppService.java"]
	if !strings.Contains(service, "implements LoanAppUseCase") || !strings.Contains(service, "public void handleAwaitDecision(String message)") {
		t.Fatalf("unexpected service:\n%s", service)
	}
	adapter := files[root+"adapter/output/persistence/LoanAppPersistenceAdapter.java"]
	if !strings.Contains(adapter, "implements LoanAppRepository") || !strings.Contains(adapter, "@Override") {
		t.Fatalf("adapter should implement its port:\n%s", adapter)
	}
	if !strings.Contains(files["pom.xml"], "spring-boot-starter-web-services") {
		t.Fatalf("SOAP plan should include web services starter")
	}
}

func TestSpringRendererEmptyProcess(t *testing.T) {
	plan := &ir.ProcessPlan{
		ProcessName:  "empty-process",
		PackageRoot:  "",
		Architecture: ir.ArchitectureLayered,
		Unit:         &ir.ProcessUnit{Name: "empty-process"},
	}
	files, err := NewSpringRenderer(nil).Render(context.Background(), plan)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	service := files["src/main/java/com/example/emptyprocess/service/EmptyProcessService.java"]
	if !strings.Contains(service, "public String process(String request)") || !strings.Contains(service, "return null;") {
		t.Fatalf("unexpected service for empty process:\n%s", service)
	}
	if _, ok := files["src/main/java/com/example/emptyprocess/endpoint/EmptyProcessEndpoint.java"]; !ok {
		t.Fatalf("an empty style set should render both entry points")
	}
}

func TestSpringRendererRejectsInvalidPlans(t *testing.T) {
	r := NewSpringRenderer(nil)
	if _, err := r.Render(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil plan")
	}
	if _, err := r.Render(context.Background(), &ir.ProcessPlan{Unit: &ir.ProcessUnit{}}); err == nil {
		t.Fatalf("expected error for unnamed plan")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, loanPlan(ir.ArchitectureLayered, nil)); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestNamingHelpers(t *testing.T) {
	cases := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{className, "loan_request", "LoanRequest"},
		{className, "Get Customer", "GetCustomer"},
		{className, "3dSecure", "T3dSecure"},
		{memberName, "customerID", "customerID"},
		{memberName, "URLPath", "urlPath"},
		{memberName, "ID", "id"},
		{memberName, "class", "classValue"},
		{constantName, "storeLoan", "STORE_LOAN"},
		{packageSegment, "Loan-App", "loanapp"},
		{safeComponent, "LoanApp", "loan-app"},
		{validPackageRoot, " org.Acme. ", "org.acme"},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}
