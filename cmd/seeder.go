package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	rbacDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/rbac"
	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the module catalog and default users",
	Long:  `Seed modules, permissions, role grants and the default admin and coordinator users.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if err := runSeed(db); err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Println("Seed completed")
	},
}

type actionSeed struct {
	Action      permission.Action
	Description string
}

type moduleSeed struct {
	Name        string
	DisplayName string
	Description string
	MenuType    string
	Icon        string
	Path        string
	Order       int
	Parent      string
	Actions     []actionSeed
}

func crudActions(subject string) []actionSeed {
	return []actionSeed{
		{permission.ActionView, "Ver " + subject},
		{permission.ActionCreate, "Crear " + subject},
		{permission.ActionUpdate, "Actualizar " + subject},
		{permission.ActionDelete, "Eliminar " + subject},
	}
}

func viewAction(description string) []actionSeed {
	return []actionSeed{{permission.ActionView, description}}
}

// moduleCatalog is the back-office menu tree. Top-level entries carry an
// icon; sub-modules hang off Parent and inherit the menu section.
var moduleCatalog = []moduleSeed{
	{Name: "m_dashboard", DisplayName: "Dashboard", Description: "Panel principal con métricas, KPIs y resumen general del sistema", MenuType: "principal", Icon: "layout-dashboard", Path: "/", Order: 1, Actions: viewAction("Ver el dashboard")},

	{Name: "m_tickets", DisplayName: "Boletos", Description: "Venta y gestión de boletos", MenuType: "operations", Icon: "tickets", Path: "/tickets", Order: 2, Actions: viewAction("Ver boletos")},
	{Name: "sm_box-office", DisplayName: "Taquilla", Description: "Taquilla de boletos", MenuType: "operations", Path: "/tickets/box-office", Order: 1, Parent: "m_tickets", Actions: []actionSeed{
		{permission.ActionView, "Ver la taquilla"},
		{permission.ActionCreate, "Crear tickets"},
		{permission.ActionPrint, "Imprimir tickets"},
	}},
	{Name: "sm_reservations", DisplayName: "Reservaciones", Description: "Gestión de reservas de boletos", MenuType: "operations", Path: "/tickets/reservations", Order: 2, Parent: "m_tickets", Actions: crudActions("reservaciones")},
	{Name: "sm_cancellations-changes", DisplayName: "Cancelación y Cambios", Description: "Modificación y anulación de boletos", MenuType: "operations", Path: "/tickets/cancellations-changes", Order: 3, Parent: "m_tickets", Actions: []actionSeed{
		{permission.ActionView, "Ver solicitudes de cambio"},
		{permission.ActionUpdate, "Procesar solicitudes de cambio"},
		{permission.ActionDelete, "Cancelar boletos"},
	}},
	{Name: "sm_ticket-search", DisplayName: "Búsqueda de Boletos", Description: "Consulta y seguimiento de boletos", MenuType: "operations", Path: "/tickets/ticket-search", Order: 4, Parent: "m_tickets", Actions: viewAction("Buscar y consultar boletos")},

	{Name: "m_trip-management", DisplayName: "Gestión de Viajes", Description: "Administración completa de viajes y recorridos", MenuType: "operations", Icon: "bus-front", Path: "/trips", Order: 3, Actions: viewAction("Ver gestión de viajes")},
	{Name: "sm_trips", DisplayName: "Viajes", Description: "Viajes programados y activos", MenuType: "operations", Path: "/trips/trips", Order: 1, Parent: "m_trip-management", Actions: crudActions("viajes")},
	{Name: "sm_trip-status", DisplayName: "Estado de Viaje", Description: "Seguimiento de viajes", MenuType: "operations", Path: "/trips/trip-status", Order: 2, Parent: "m_trip-management", Actions: []actionSeed{
		{permission.ActionView, "Ver estado de viajes"},
		{permission.ActionUpdate, "Actualizar estado de viajes"},
	}},

	{Name: "m_routes-management", DisplayName: "Gestión de Rutas", Description: "Definición de rutas, paradas y recorridos", MenuType: "operations", Icon: "route", Path: "/routes", Order: 4, Actions: viewAction("Ver gestión de rutas")},
	{Name: "sm_routes", DisplayName: "Rutas", Description: "Definición de rutas operativas", MenuType: "operations", Path: "/routes/routes", Order: 1, Parent: "m_routes-management", Actions: crudActions("rutas")},
	{Name: "sm_stops", DisplayName: "Paradas", Description: "Gestión de paradas y terminales intermedias", MenuType: "operations", Path: "/routes/stops", Order: 2, Parent: "m_routes-management", Actions: crudActions("paradas")},
	{Name: "sm_paths", DisplayName: "Recorridos", Description: "Gestión de recorridos", MenuType: "operations", Path: "/routes/paths", Order: 3, Parent: "m_routes-management", Actions: crudActions("recorridos")},
	{Name: "sm_paths-scheduling", DisplayName: "Planeación de Recorridos", Description: "Gestión de planificacion de recorridos", MenuType: "operations", Path: "/routes/paths-scheduling", Order: 4, Parent: "m_routes-management", Actions: crudActions("planeación de recorridos")},

	{Name: "m_fleet", DisplayName: "Flota", Description: "Administración de vehículos y mantenimiento", MenuType: "operations", Icon: "bus", Path: "/fleet", Order: 5, Actions: viewAction("Ver flota")},
	{Name: "sm_vehicle-units", DisplayName: "Vehiculos", Description: "Gestión de vehiculos", MenuType: "operations", Path: "/fleet/vehicle-units", Order: 1, Parent: "m_fleet", Actions: crudActions("vehiculos")},
	{Name: "sm_vehicle-services", DisplayName: "Servicios", Description: "Gestión de servicios de vehiculos", MenuType: "operations", Path: "/fleet/services", Order: 2, Parent: "m_fleet", Actions: crudActions("servicios")},

	{Name: "m_staff", DisplayName: "Personal", Description: "Gestión de personal", MenuType: "operations", Icon: "users", Path: "/staff", Order: 6, Actions: viewAction("Ver personal")},
	{Name: "sm_employees", DisplayName: "Empleados", Description: "Registro y gestión de personal", MenuType: "operations", Path: "/staff/employees", Order: 1, Parent: "m_staff", Actions: crudActions("empleados")},
	{Name: "sm_employees-schedules", DisplayName: "Horarios", Description: "Turnos y asignaciones de personal", MenuType: "operations", Path: "/staff/employees-schedules", Order: 2, Parent: "m_staff", Actions: crudActions("horarios")},

	{Name: "m_customers", DisplayName: "Clientes", Description: "Gestión de clientes", MenuType: "operations", Icon: "circle-user", Path: "/customers", Order: 7, Actions: crudActions("clientes")},

	{Name: "m_infrastructure", DisplayName: "Infraestructura", Description: "Gestión de terminales, centrales y andenes", MenuType: "config", Icon: "warehouse", Path: "/infrastructure", Order: 8, Actions: viewAction("Ver infraestructura")},
	{Name: "sm_terminals", DisplayName: "Terminales", Description: "Gestión de terminales principales", MenuType: "config", Path: "/infrastructure/terminals", Order: 1, Parent: "m_infrastructure", Actions: crudActions("terminales")},
	{Name: "sm_headquarters", DisplayName: "Centrales", Description: "Oficinas y centros de operación", MenuType: "config", Path: "/infrastructure/headquarters", Order: 2, Parent: "m_infrastructure", Actions: crudActions("centrales")},
	{Name: "sm_platforms", DisplayName: "Andenes", Description: "Plataformas de abordaje", MenuType: "config", Path: "/infrastructure/platforms", Order: 3, Parent: "m_infrastructure", Actions: crudActions("andenes")},

	{Name: "m_system-admin", DisplayName: "Sistema", Description: "Configuración general y seguridad del sistema", MenuType: "config", Icon: "settings", Path: "/system-admin", Order: 9, Actions: viewAction("Ver sistema")},
	{Name: "sm_users", DisplayName: "Usuarios", Description: "Gestión de usuarios del sistema", MenuType: "config", Path: "/system-admin/users", Order: 1, Parent: "m_system-admin", Actions: []actionSeed{
		{permission.ActionView, "Ver usuarios"},
		{permission.ActionCreate, "Crear usuarios"},
		{permission.ActionUpdate, "Modificar usuarios"},
		{permission.ActionDelete, "Eliminar usuarios"},
		{permission.ActionManage, "Gestionar permisos"},
	}},
	{Name: "sm_roles-permissions", DisplayName: "Roles y Permisos", Description: "Configuración de accesos y permisos", MenuType: "config", Path: "/system-admin/roles-permissions", Order: 2, Parent: "m_system-admin", Actions: []actionSeed{
		{permission.ActionView, "Ver roles y permisos"},
		{permission.ActionUpdate, "Modificar permisos"},
	}},
	{Name: "sm_audit", DisplayName: "Auditoría", Description: "Registro de cambios críticos del sistema", MenuType: "config", Path: "/system-admin/audit", Order: 3, Parent: "m_system-admin", Actions: []actionSeed{
		{permission.ActionView, "Ver auditoría"},
		{permission.ActionExport, "Exportar auditoría"},
	}},
	{Name: "sm_logs", DisplayName: "Bitácora", Description: "Log de actividades del sistema", MenuType: "config", Path: "/system-admin/logs", Order: 4, Parent: "m_system-admin", Actions: []actionSeed{
		{permission.ActionView, "Ver bitácora"},
		{permission.ActionExport, "Exportar bitácora"},
	}},

	{Name: "m_reports", DisplayName: "Reportes", Description: "Generación de reportes y análisis", MenuType: "config", Icon: "chart-bar-big", Path: "/reports", Order: 10, Actions: []actionSeed{
		{permission.ActionView, "Ver reportes"},
		{permission.ActionExport, "Exportar reportes"},
		{permission.ActionPrint, "Imprimir reportes"},
	}},
}

// roleGrant selects which seeded permissions a role receives. An empty
// Actions slice means every action the module defines.
type roleGrant struct {
	Module  string
	Actions []permission.Action
}

var systemAdminModules = []string{"m_system-admin", "sm_users", "sm_roles-permissions", "sm_audit", "sm_logs"}

var roleGrants = map[string][]roleGrant{
	// Coordinator gets the full operative surface, system administration excluded.
	"coordinator": grantAllExcept(systemAdminModules),
	"vendor": {
		{Module: "m_dashboard"},
		{Module: "m_tickets"},
		{Module: "sm_box-office"},
		{Module: "sm_reservations"},
		{Module: "sm_cancellations-changes"},
		{Module: "m_trip-management"},
		{Module: "sm_trips", Actions: []permission.Action{permission.ActionView}},
		{Module: "sm_trip-status"},
		{Module: "m_customers", Actions: []permission.Action{permission.ActionView, permission.ActionCreate}},
	},
	"driver": {
		{Module: "m_dashboard"},
		{Module: "m_trip-management"},
		{Module: "sm_trips", Actions: []permission.Action{permission.ActionView}},
		{Module: "sm_trip-status"},
		{Module: "m_routes-management"},
		{Module: "sm_routes", Actions: []permission.Action{permission.ActionView}},
		{Module: "sm_paths", Actions: []permission.Action{permission.ActionView}},
		{Module: "m_staff"},
		{Module: "sm_employees-schedules", Actions: []permission.Action{permission.ActionView}},
	},
	"collector": {
		{Module: "m_dashboard"},
		{Module: "m_tickets"},
		{Module: "sm_box-office", Actions: []permission.Action{permission.ActionView, permission.ActionCreate}},
		{Module: "sm_ticket-search"},
		{Module: "m_trip-management"},
		{Module: "sm_trips", Actions: []permission.Action{permission.ActionView}},
		{Module: "sm_trip-status", Actions: []permission.Action{permission.ActionView}},
		{Module: "m_routes-management"},
		{Module: "sm_routes", Actions: []permission.Action{permission.ActionView}},
	},
	// Viewer sees everything operative, read only.
	"viewer": viewOnlyExcept(systemAdminModules),
}

func grantAllExcept(excluded []string) []roleGrant {
	grants := make([]roleGrant, 0, len(moduleCatalog))
	for _, m := range moduleCatalog {
		if containsString(excluded, m.Name) {
			continue
		}
		grants = append(grants, roleGrant{Module: m.Name})
	}
	return grants
}

func viewOnlyExcept(excluded []string) []roleGrant {
	grants := make([]roleGrant, 0, len(moduleCatalog))
	for _, m := range moduleCatalog {
		if containsString(excluded, m.Name) {
			continue
		}
		grants = append(grants, roleGrant{Module: m.Name, Actions: []permission.Action{permission.ActionView}})
	}
	return grants
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func runSeed(db *gorm.DB) error {
	if clearData {
		fmt.Println("Clearing existing catalog data...")
		for _, table := range []string{"role_permissions", "user_permissions", "permissions", "modules"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	if err := seedUsers(db); err != nil {
		return err
	}

	moduleIDs, permissionIDs, err := seedCatalog(db)
	if err != nil {
		return err
	}

	return seedRoleGrants(db, moduleIDs, permissionIDs)
}

func seedUsers(db *gorm.DB) error {
	fmt.Println("Seeding users...")

	adminHash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	coordHash, err := bcrypt.GenerateFromPassword([]byte("Coord123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	employeeNumber := "EMP-001"
	users := []userDatamodel.User{
		{
			ID:           uuid.NewString(),
			Email:        "admin@correo.com",
			FullName:     "Administrador del Sistema",
			PasswordHash: string(adminHash),
			Role:         "admin",
			IsActive:     true,
		},
		{
			ID:             uuid.NewString(),
			Email:          "coordinador@correo.com",
			EmployeeNumber: &employeeNumber,
			FullName:       "Coordinador del Sistema",
			PasswordHash:   string(coordHash),
			Role:           "coordinator",
			IsActive:       true,
		},
	}

	for _, u := range users {
		var existing userDatamodel.User
		err := db.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check user %s: %w", u.Email, err)
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		fmt.Println("Seeded user:", u.Email)
	}

	return nil
}

func seedCatalog(db *gorm.DB) (map[string]int64, map[string]map[permission.Action]int64, error) {
	fmt.Println("Seeding module catalog...")

	moduleIDs := make(map[string]int64, len(moduleCatalog))
	permissionIDs := make(map[string]map[permission.Action]int64, len(moduleCatalog))

	for _, seed := range moduleCatalog {
		module := rbacDatamodel.Module{
			Name:        seed.Name,
			DisplayName: seed.DisplayName,
			Description: seed.Description,
			MenuType:    seed.MenuType,
			Icon:        seed.Icon,
			Path:        seed.Path,
			SortOrder:   seed.Order,
			IsActive:    true,
		}
		if seed.Parent != "" {
			parentID, ok := moduleIDs[seed.Parent]
			if !ok {
				return nil, nil, fmt.Errorf("module %s declared before its parent %s", seed.Name, seed.Parent)
			}
			module.ParentID = &parentID
		}

		if err := db.Where(rbacDatamodel.Module{Name: seed.Name}).
			FirstOrCreate(&module).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to seed module %s: %w", seed.Name, err)
		}
		moduleIDs[seed.Name] = module.ID

		actionIDs := make(map[permission.Action]int64, len(seed.Actions))
		for _, action := range seed.Actions {
			perm := rbacDatamodel.Permission{
				ModuleID:    module.ID,
				Action:      string(action.Action),
				Description: action.Description,
				IsActive:    true,
			}
			if err := db.Where(rbacDatamodel.Permission{ModuleID: module.ID, Action: string(action.Action)}).
				FirstOrCreate(&perm).Error; err != nil {
				return nil, nil, fmt.Errorf("failed to seed permission %s.%s: %w", seed.Name, action.Action, err)
			}
			actionIDs[action.Action] = perm.ID
		}
		permissionIDs[seed.Name] = actionIDs
	}

	return moduleIDs, permissionIDs, nil
}

func seedRoleGrants(db *gorm.DB, moduleIDs map[string]int64, permissionIDs map[string]map[permission.Action]int64) error {
	fmt.Println("Seeding role grants...")

	// Admin holds every seeded permission.
	adminGrants := make([]roleGrant, 0, len(moduleCatalog))
	for _, m := range moduleCatalog {
		adminGrants = append(adminGrants, roleGrant{Module: m.Name})
	}

	grantsByRole := map[string][]roleGrant{"admin": adminGrants}
	for role, grants := range roleGrants {
		grantsByRole[role] = grants
	}

	for role, grants := range grantsByRole {
		for _, grant := range grants {
			actions := grant.Actions
			if len(actions) == 0 {
				for action := range permissionIDs[grant.Module] {
					actions = append(actions, action)
				}
			}

			for _, action := range actions {
				permID, ok := permissionIDs[grant.Module][action]
				if !ok {
					continue
				}

				row := rbacDatamodel.RolePermission{
					Role:         role,
					ModuleID:     moduleIDs[grant.Module],
					PermissionID: permID,
					Granted:      true,
				}
				if err := db.Where(rbacDatamodel.RolePermission{
					Role:         role,
					ModuleID:     row.ModuleID,
					PermissionID: row.PermissionID,
				}).FirstOrCreate(&row).Error; err != nil {
					return fmt.Errorf("failed to grant %s %s.%s: %w", role, grant.Module, action, err)
				}
			}
		}
	}

	return nil
}
